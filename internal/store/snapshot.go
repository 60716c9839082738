// SPDX-License-Identifier: MIT

package store

import (
	"errors"

	"github.com/ManuGH/appsettings/internal/metrics"
	"github.com/ManuGH/appsettings/internal/settings"
)

// Snapshot returns the overridden leaves of reg as records. Values equal to
// their default are left out so a changed default takes effect on upgrade.
func Snapshot(reg *settings.Registry) []Record {
	overrides := reg.Overrides()
	out := make([]Record, 0, len(overrides))
	for _, v := range overrides {
		out = append(out, Record{Path: v.Path, Kind: v.Kind, Value: v.Text()})
	}
	return out
}

// InvalidRecord is a persisted record that could not be applied.
type InvalidRecord struct {
	Record
	Err error
}

// ApplyReport summarises Apply. Unknown and invalid records are skipped.
type ApplyReport struct {
	Applied []string
	Reset   []string
	Unknown []string
	Invalid []InvalidRecord
}

// Skipped returns the number of records that were not applied.
func (r ApplyReport) Skipped() int { return len(r.Unknown) + len(r.Invalid) }

// Apply writes records into reg. Records for paths the registry does not
// declare (removed settings) or whose value no longer parses as the declared
// kind are reported and skipped.
func Apply(reg *settings.Registry, records []Record) ApplyReport {
	var rep ApplyReport
	for _, rec := range records {
		v, err := reg.Value(rec.Path)
		if err != nil {
			rep.Unknown = append(rep.Unknown, rec.Path)
			continue
		}
		if rec.Kind != settings.KindInvalid && rec.Kind != v.Kind {
			rep.Invalid = append(rep.Invalid, InvalidRecord{Record: rec, Err: &settings.TypeMismatchError{
				Path: v.Path, Want: v.Kind, Got: "persisted " + rec.Kind.String(),
			}})
			continue
		}
		if err := reg.SetString(v.Path, rec.Value); err != nil {
			if errors.Is(err, settings.ErrNotFound) {
				rep.Unknown = append(rep.Unknown, rec.Path)
				continue
			}
			rep.Invalid = append(rep.Invalid, InvalidRecord{Record: rec, Err: err})
			continue
		}
		rep.Applied = append(rep.Applied, v.Path)
	}
	metrics.AddApplySkipped("unknown", len(rep.Unknown))
	metrics.AddApplySkipped("invalid", len(rep.Invalid))
	return rep
}

// Reconcile makes reg match records exactly: overrides without a record are
// reset to their default, then records are applied.
func Reconcile(reg *settings.Registry, records []Record) ApplyReport {
	present := make(map[string]struct{}, len(records))
	for _, rec := range records {
		present[settings.CanonicalPath(rec.Path)] = struct{}{}
	}
	var reset []string
	for _, v := range reg.Overrides() {
		if _, ok := present[v.Path]; ok {
			continue
		}
		if err := reg.Reset(v.Path); err == nil {
			reset = append(reset, v.Path)
		}
	}
	rep := Apply(reg, records)
	rep.Reset = reset
	return rep
}
