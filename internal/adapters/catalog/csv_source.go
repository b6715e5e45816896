package catalog

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/virtuefdn/medbridge/backend/internal/domain/entities"
	"github.com/virtuefdn/medbridge/backend/internal/domain/repositories"
	apperrors "github.com/virtuefdn/medbridge/backend/pkg/errors"
)

// CSVSource loads raw facility rows from the catalog export.
type CSVSource struct {
	path string
}

// NewCSVSource creates a CSV-backed facility source.
func NewCSVSource(path string) repositories.FacilitySource {
	return &CSVSource{path: path}
}

// LoadAll reads every row in source order. List columns are parsed
// tolerantly and numerics that fail coercion are treated as absent.
func (s *CSVSource) LoadAll(ctx context.Context) ([]*entities.Facility, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to open catalog csv", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to read catalog header", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}

	get := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		v := strings.TrimSpace(record[i])
		if isAbsent(v) {
			return ""
		}
		return v
	}

	var rows []*entities.Facility
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewInternalError("failed to read catalog row", err)
		}

		facilityType := get(record, "facilityTypeId")
		// known typo in the source export
		if facilityType == "farmacy" {
			facilityType = "pharmacy"
		}

		row := &entities.Facility{
			PKUniqueID:              get(record, "pk_unique_id"),
			UniqueID:                get(record, "unique_id"),
			Name:                    get(record, "name"),
			OrganizationType:        entities.OrganizationType(get(record, "organization_type")),
			FacilityType:            facilityType,
			AddressLine1:            get(record, "address_line1"),
			City:                    get(record, "address_city"),
			Region:                  get(record, "address_stateOrRegion"),
			Country:                 get(record, "address_country"),
			OperatorType:            get(record, "operatorTypeId"),
			Description:             get(record, "description"),
			OrganizationDescription: get(record, "organizationDescription"),
			MissionStatement:        get(record, "missionStatement"),
			Latitude:                parseFloat(get(record, "latitude")),
			Longitude:               parseFloat(get(record, "longitude")),
			Beds:                    parseInt(get(record, "capacity")),
			Doctors:                 parseInt(get(record, "numberDoctors")),
			YearEstablished:         parseInt(get(record, "yearEstablished")),
			AreaSqm:                 parseFloat(get(record, "area")),
			Specialties:             ParseListField(get(record, "specialties")),
			Procedures:              ParseListField(get(record, "procedure")),
			Equipment:               ParseListField(get(record, "equipment")),
			Capabilities:            ParseListField(get(record, "capability")),
		}

		// coordinates come in pairs or not at all
		if row.Latitude == nil || row.Longitude == nil {
			row.Latitude = nil
			row.Longitude = nil
		}

		rows = append(rows, row)
	}

	return rows, nil
}
