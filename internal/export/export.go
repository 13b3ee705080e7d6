// Package export writes venue directories to XLSX workbooks for
// distribution to resort operations teams.
package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/summit-group/dining-cli/internal/model"
	"github.com/summit-group/dining-cli/internal/store"
)

const sheetName = "Venues"

var headerRow = []string{
	"Name", "Type", "Cuisines", "Price", "City", "Region",
	"Address", "Phone", "Website", "Latitude", "Longitude",
	"On Mountain", "Zone", "Ski-In/Ski-Out", "Breakfast", "Lunch",
	"Dinner", "Alcohol", "Ambiance", "Features", "Source", "Verified",
}

// WriteDirectory exports every venue matching filter to an XLSX file at
// outPath. The file is overwritten if present.
func WriteDirectory(ctx context.Context, st store.Store, filter store.VenueFilter, outPath string) (int, error) {
	venues, err := st.ListVenues(ctx, filter)
	if err != nil {
		return 0, eris.Wrap(err, "export: list venues")
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return 0, eris.Wrap(err, "export: add sheet")
	}

	writeRow(sheet, headerRow)
	for _, v := range venues {
		writeRow(sheet, venueRow(v))
	}

	if err := f.Save(outPath); err != nil {
		return 0, eris.Wrapf(err, "export: save %s", outPath)
	}

	zap.L().Info("venue directory exported",
		zap.String("path", outPath),
		zap.Int("venues", len(venues)),
	)
	return len(venues), nil
}

func writeRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}

func venueRow(v model.Venue) []string {
	return []string{
		v.Name,
		joinTags(v.VenueTypes),
		joinTags(v.Cuisines),
		string(v.PriceBand),
		v.City,
		v.Region,
		v.Address,
		v.Phone,
		v.Website,
		fmt.Sprintf("%.5f", v.Latitude),
		fmt.Sprintf("%.5f", v.Longitude),
		yesNo(v.OnMountain),
		string(v.MountainZone),
		yesNo(v.SkiInSkiOut),
		yesNo(v.ServesBreakfast),
		yesNo(v.ServesLunch),
		yesNo(v.ServesDinner),
		yesNo(v.ServesAlcohol),
		joinTags(v.Ambiance),
		joinTags(v.Features),
		string(v.Source),
		yesNo(v.Verified),
	}
}

func joinTags[T ~string](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
