package parcels

import (
	"context"
	"strings"

	"github.com/YaqiinCargo/CargoBox/internal/sheets"
)

// Source — один именованный рейс из справочника: имя (колонка A)
// и ссылка на его таблицу (колонка B), приведённая к CSV-экспорту.
type Source struct {
	Name string
	URL  string
}

// ListSources читает справочник рейсов. Строки без http-ссылки во второй
// колонке пропускаются. Сбой источника — пустой список.
func (r *Resolver) ListSources(ctx context.Context) []Source {
	if r.directoryURL == "" {
		return nil
	}
	text, ok := r.fetcher.Fetch(ctx, r.directoryURL)
	if !ok || sheets.IsHTML(text) {
		return nil
	}

	var out []Source
	for _, row := range strings.Split(text, "\n") {
		cols := sheets.SplitRow(row)
		if len(cols) >= 2 && strings.Contains(cols[1], "http") {
			out = append(out, Source{
				Name: cols[0],
				URL:  sheets.CSVExportURL(cols[1]),
			})
		}
	}
	return out
}
