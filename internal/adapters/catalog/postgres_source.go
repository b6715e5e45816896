package catalog

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"github.com/virtuefdn/medbridge/backend/internal/domain/entities"
	"github.com/virtuefdn/medbridge/backend/internal/domain/repositories"
	"github.com/virtuefdn/medbridge/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/virtuefdn/medbridge/backend/pkg/errors"
)

// PostgresSource loads raw facility rows from the facilities table.
// Schema mirrors the CSV export; list columns are text arrays.
type PostgresSource struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPostgresSource creates a Postgres-backed facility source.
func NewPostgresSource(client *postgres.Client) repositories.FacilitySource {
	return &PostgresSource{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// LoadAll reads every facility row in insertion order.
func (s *PostgresSource) LoadAll(ctx context.Context) ([]*entities.Facility, error) {
	query, args, err := s.db.Select(
		"pk_unique_id", "unique_id", "name", "organization_type", "facility_type",
		"address_line1", "city", "region", "country", "operator_type",
		"description", "organization_description", "mission_statement",
		"latitude", "longitude", "beds", "doctors", "year_established", "area",
		"specialties", "procedures", "equipment", "capabilities",
	).From("facilities").
		Order(goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build facilities query", err)
	}

	rows, err := s.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load facilities", err)
	}
	defer rows.Close()

	var out []*entities.Facility
	for rows.Next() {
		f := &entities.Facility{}
		var (
			orgType, facilityType                         sql.NullString
			addr, city, region, country, operator         sql.NullString
			desc, orgDesc, mission                        sql.NullString
			lat, lng, area                                sql.NullFloat64
			beds, doctors, year                           sql.NullInt64
		)

		err := rows.Scan(
			&f.PKUniqueID,
			&f.UniqueID,
			&f.Name,
			&orgType,
			&facilityType,
			&addr,
			&city,
			&region,
			&country,
			&operator,
			&desc,
			&orgDesc,
			&mission,
			&lat,
			&lng,
			&beds,
			&doctors,
			&year,
			&area,
			pq.Array(&f.Specialties),
			pq.Array(&f.Procedures),
			pq.Array(&f.Equipment),
			pq.Array(&f.Capabilities),
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan facility row", err)
		}

		f.OrganizationType = entities.OrganizationType(orgType.String)
		f.FacilityType = facilityType.String
		f.AddressLine1 = addr.String
		f.City = city.String
		f.Region = region.String
		f.Country = country.String
		f.OperatorType = operator.String
		f.Description = desc.String
		f.OrganizationDescription = orgDesc.String
		f.MissionStatement = mission.String

		if lat.Valid && lng.Valid {
			la, ln := lat.Float64, lng.Float64
			f.Latitude = &la
			f.Longitude = &ln
		}
		if beds.Valid {
			v := int(beds.Int64)
			f.Beds = &v
		}
		if doctors.Valid {
			v := int(doctors.Int64)
			f.Doctors = &v
		}
		if year.Valid {
			v := int(year.Int64)
			f.YearEstablished = &v
		}
		if area.Valid {
			v := area.Float64
			f.AreaSqm = &v
		}

		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate facility rows", err)
	}

	return out, nil
}
