package feedstock

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// primaryCSV documents challenges as free text and as boolean columns. Only the boolean
// columns count towards a score.
//
//	Pine Bark:  scores Low OC, Low pH             (not a main crop)
//	Rice Husk:  scores Low OC, High Temperature   (High pH is free text only)
//	Corn Straw: scores Low OC, Low pH
const primaryCSV = `Type,Origin,pH,C (%),Biochar Yield (%),Final Temperature,Soil Challenges to amend,Challenge_Low_OC,Challenge_Low_pH,Challenge_High_Temperature
Pine Bark,Chile,9.1,70,30,500,Low OC; Low pH,1,1,0
Rice Husk,Brazil,8.5,45,35,450,Low OC,1,0,1
Corn Straw,Brazil,9.0,60,28,550,Low pH,1,1,0
Rice Husk,Brazil,9.5,50-60,33,600,High pH,0,0,0
,Unknown,7.0,,,,Low Moisture,1,1,1
`

// fallbackCSV has no challenge information at all.
const fallbackCSV = `Type,Origin,pH,C (%),Biochar Yield (%)
Eucalyptus,Brazil,9.8,80,25
Soybean Straw,Brazil,9.2,55,31
Corn cob,Brazil,nan,62,29
`

func mustTable(t *testing.T, csv string) *Table {
	t.Helper()
	tbl, err := ReadTableFrom(strings.NewReader(csv), ',')
	require.NoError(t, err)
	return tbl
}

func mustDataset(t *testing.T, name, csv string) *Dataset {
	t.Helper()
	d, err := NewDataset(name, mustTable(t, csv))
	require.NoError(t, err)
	return d
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
