package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/ffishim/dustr/binding"
	"github.com/ffishim/dustr/config/rules"
)

// Stats prints the number of bound items per kind as a table.
func Stats(w io.Writer, set *binding.Set) {
	kinds := []rules.ItemKind{rules.ItemStruct, rules.ItemEnum, rules.ItemFunction}
	bound := map[rules.ItemKind]int{}
	total := map[rules.ItemKind]int{}
	for _, it := range set.Items {
		bound[it.Kind]++
		total[it.Kind]++
	}
	for _, items := range [][]*binding.Item{set.Disabled, set.Skipped} {
		for _, it := range items {
			total[it.Kind]++
		}
	}

	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{"Kind", "Bound/Total", "Disabled", "Skipped"})
	nBound, nTotal := 0, 0
	for _, k := range kinds {
		tbl.Append([]string{k.String(), fmt.Sprintf("%v/%v", bound[k], total[k]), "", ""})
		nBound += bound[k]
		nTotal += total[k]
	}
	tbl.Append([]string{
		"==TOTAL==",
		fmt.Sprintf("%v/%v", nBound, nTotal),
		strconv.Itoa(len(set.Disabled)),
		strconv.Itoa(len(set.Skipped)),
	})
	tbl.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT})
	tbl.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	tbl.SetCenterSeparator("|")
	tbl.Render()
}

type Task struct {
	Name string
	Time time.Duration
}

// Timing prints the duration of each task and its share of the total.
func Timing(w io.Writer, tasks []Task) {
	var total time.Duration
	for _, t := range tasks {
		total += t.Time
	}
	timePercent := func(t time.Duration) string {
		if total == 0 {
			return "0.00"
		}
		return strconv.FormatFloat(float64(t)/float64(total)*100, 'f', 2, 64)
	}

	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{"Task", "Time", "Time %"})
	for _, t := range tasks {
		tbl.Append([]string{t.Name, t.Time.String(), timePercent(t.Time)})
	}
	tbl.Append([]string{"==TOTAL==", total.String(), "100"})
	tbl.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_RIGHT})
	tbl.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	tbl.SetCenterSeparator("|")
	tbl.Render()
}
