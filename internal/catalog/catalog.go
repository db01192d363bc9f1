package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Alwanly/service-feed-ingest/internal/feed"
	"github.com/Alwanly/service-feed-ingest/internal/models"
	"github.com/Alwanly/service-feed-ingest/pkg/logger"
)

// DefaultPath is the catalog file used when none is configured.
const DefaultPath = "urls.csv"

// ErrMalformedRow reports a catalog row that cannot be turned into an agency.
var ErrMalformedRow = errors.New("catalog: malformed row")

const columns = 10

// Load reads the catalog at path. Failing to open or read the file is an
// error; individual malformed rows are logged and skipped.
func Load(path string, log *logger.CanonicalLogger) ([]feed.Agency, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()

	agencies, err := Parse(f, log)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	log.Info("catalog loaded", logger.String("path", path), logger.Int(logger.FieldAgencies, len(agencies)))
	return agencies, nil
}

// Parse reads a catalog with a header row followed by one agency per row:
// id, vehicles url, trips url, alerts url, has auth, auth type, auth header,
// password, fetch interval, rotation credentials (comma separated, may be
// empty).
func Parse(r io.Reader, log *logger.CanonicalLogger) ([]feed.Agency, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var agencies []feed.Agency
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				log.WithError(err).Warn("skipping unreadable catalog row")
				continue
			}
			return nil, err
		}

		line, _ := reader.FieldPos(0)
		agency, err := parseRecord(record)
		if err != nil {
			log.WithError(err).Warn("skipping catalog row", logger.Int("line", line))
			continue
		}
		agencies = append(agencies, agency)
	}
	return agencies, nil
}

func parseRecord(record []string) (feed.Agency, error) {
	if len(record) != columns {
		return feed.Agency{}, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedRow, columns, len(record))
	}

	hasAuth, err := strconv.ParseBool(strings.TrimSpace(record[4]))
	if err != nil {
		return feed.Agency{}, fmt.Errorf("%w: has_auth %q", ErrMalformedRow, record[4])
	}
	interval, err := strconv.ParseFloat(strings.TrimSpace(record[8]), 64)
	if err != nil {
		return feed.Agency{}, fmt.Errorf("%w: fetch_interval %q", ErrMalformedRow, record[8])
	}

	info := models.AgencyInfo{
		ID:                   record[0],
		VehiclesURL:          record[1],
		TripsURL:             record[2],
		AlertsURL:            record[3],
		HasAuth:              hasAuth,
		AuthType:             record[5],
		AuthHeader:           record[6],
		AuthPassword:         record[7],
		FetchIntervalSeconds: interval,
	}
	if record[9] != "" {
		info.RotationCredentials = strings.Split(record[9], ",")
	}

	agency, err := feed.NewAgency(info)
	if err != nil {
		return feed.Agency{}, fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}
	return agency, nil
}
