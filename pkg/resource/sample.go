package resource

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/telhawk-systems/tableviews/pkg/model"
)

type peer struct {
	alias  string
	pubkey string
}

// Sample generates n plausible records for r. Records share a small pool of
// peers so that grouping by peer has something to aggregate. The same seed
// always yields the same records.
func Sample(r *Resource, n int, seed int64) []model.Record {
	f := gofakeit.New(seed)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	peers := make([]peer, max(1, n/3))
	for i := range peers {
		sum := sha256.Sum256([]byte(f.UUID()))
		peers[i] = peer{
			alias:  f.Company(),
			pubkey: "03" + hex.EncodeToString(sum[:])[:64],
		}
	}

	records := make([]model.Record, n)
	for i := range records {
		p := peers[f.Number(0, len(peers)-1)]
		rec := model.Record{}
		for _, c := range r.Columns {
			rec[c.Key] = sampleValue(f, r, c, p, now)
			if c.Key2 != "" {
				rec[c.Key2] = sampleValue(f, r, c, p, now)
			}
		}
		records[i] = rec
	}
	return records
}

func sampleValue(f *gofakeit.Faker, r *Resource, c model.ColumnMetaData, p peer, now time.Time) any {
	lower := strings.ToLower(c.Key)
	switch {
	case strings.Contains(lower, "alias") || c.Key == "nodeName":
		return p.alias
	case strings.Contains(lower, "pubkey"):
		return p.pubkey
	}

	switch c.ValueType {
	case model.ValueNumber:
		return float64(f.Number(0, 5_000_000))
	case model.ValueBoolean:
		return f.Bool()
	case model.ValueDate:
		return f.DateRange(now.AddDate(0, 0, -30), now).UTC().Format(time.RFC3339)
	case model.ValueArray:
		if opts := r.EnumOptions[c.Key]; len(opts) > 0 {
			return f.RandomString(opts)
		}
		return f.Word()
	case model.ValueLink:
		return f.URL()
	}
	if strings.Contains(lower, "channelid") {
		return f.Numerify("###x####x#")
	}
	return f.HipsterWord()
}
