package util

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/olekukonko/tablewriter"
)

// MarshalAndPrintTable renders a slice of gocsv-tagged structs as an aligned table.
func MarshalAndPrintTable(writer io.Writer, in interface{}) error {
	csvContent, err := gocsv.MarshalString(in)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(writer)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetRowLine(false)
	table.SetCenterSeparator("")
	table.SetRowSeparator("")
	table.SetColumnSeparator("")

	records, err := csv.NewReader(strings.NewReader(csvContent)).ReadAll()
	if err != nil {
		return err
	}
	if len(records) > 0 {
		table.SetHeader(records[0])
		table.AppendBulk(records[1:])
	}

	table.Render()
	return nil
}
