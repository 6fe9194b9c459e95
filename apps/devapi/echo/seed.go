package devapi

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/storage/memdb"
)

// Seed inserts the records of a JSON document shaped like {"etudiants": [{...}], ...}.
func Seed(db *memdb.DB, r io.Reader) (int, error) {
	var doc map[string][]memdb.Record
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return 0, errors.Wrap(err, "decoding seed")
	}

	var n int
	for name, records := range doc {
		tbl, ok := db.Table(name)
		if !ok {
			return n, errors.Errorf("seed: unknown resource %q", name)
		}
		for _, rec := range records {
			if _, err := tbl.Insert(rec); err != nil {
				return n, errors.Wrapf(err, "seeding %s", name)
			}
			n++
		}
	}
	return n, nil
}
