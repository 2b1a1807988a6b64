package register

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Dump writes the bank cross-table. Each row is a group slot, each column a
// bank, and each cell the name of the register in that slot, or blank.
func (rs *RegisterSet) Dump(w io.Writer) (err error) {
	tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', 0)

	fmt.Fprint(tw, "group\tnum\tidx")
	for n := range rs.table.numBanks() {
		fmt.Fprintf(tw, "\tbank%v", n)
	}
	fmt.Fprintln(tw)

	for _, key := range rs.table.rows() {
		fmt.Fprintf(tw, "%v\t%v\t%v", key.GroupName, key.GroupNum, key.GroupIdx)
		for _, bk := range rs.table.banks {
			name := ""
			if reg := bk.get(key.GroupNum, key.GroupIdx); reg != nil {
				name = reg.Name()
			}
			fmt.Fprintf(tw, "\t%v", name)
		}
		fmt.Fprintln(tw)
	}

	err = tw.Flush()
	return
}
