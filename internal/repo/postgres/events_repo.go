package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campushub/campusevents/internal/domain/event"
	"github.com/campushub/campusevents/internal/observability"
	"github.com/campushub/campusevents/internal/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const eventColumns = `id, title, description, date, time, venue,
	departments, categories, organizers,
	contact_email, contact_phone, google_form, volunteer_form,
	added_by, updated_by, verified_by_marker,
	main_image IS NOT NULL, qr_image IS NOT NULL,
	created_at, updated_at`

type EventsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewEventsRepo(pool *pgxpool.Pool, prom *observability.Prom) *EventsRepo {
	return &EventsRepo{pool: pool, prom: prom}
}

func (r *EventsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *EventsRepo) Create(ctx context.Context, e event.Event, mainImage, qrImage *event.Image) (event.Event, error) {
	op := "events.create"

	var mainData, qrData []byte
	var mainType, qrType *string

	if mainImage != nil {
		mainData = mainImage.Data
		mainType = &mainImage.ContentType
	}
	if qrImage != nil {
		qrData = qrImage.Data
		qrType = &qrImage.ContentType
	}

	err := r.observe(op, func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO events (id, title, description, date, time, venue,
			    departments, categories, organizers,
			    contact_email, contact_phone, google_form, volunteer_form,
			    added_by, updated_by, verified_by_marker,
			    main_image, main_image_type, qr_image, qr_image_type,
			    created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`,
			e.ID, e.Title, e.Description, e.Date, e.Time, e.Venue,
			e.Departments, e.Categories, e.Organizers,
			e.ContactEmail, e.ContactPhone, e.GoogleForm, e.VolunteerForm,
			e.AddedBy, e.UpdatedBy, e.VerifiedByMarker,
			mainData, mainType, qrData, qrType,
			e.CreatedAt, e.UpdatedAt,
		)
		return err
	})

	if err != nil {
		return event.Event{}, err
	}

	e.HasMainImage = mainImage != nil
	e.HasQRImage = qrImage != nil

	return e, nil
}

func (r *EventsRepo) GetByID(ctx context.Context, id string) (event.Event, error) {
	var e event.Event
	op := "events.get_by_id"

	err := r.observe(op, func() error {
		return r.pool.QueryRow(ctx,
			`SELECT `+eventColumns+` FROM events WHERE id = $1`, id,
		).Scan(eventScanTargets(&e)...)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return event.Event{}, event.ErrNotFound
		}
		return event.Event{}, err
	}

	return e, nil
}

// ListCursor pages events in (date, id) order with keyset pagination. The
// cursor encodes the last row of the previous page; nil means first page.
func (r *EventsRepo) ListCursor(ctx context.Context, filter event.ListEventsFilter, cursor *utils.EventCursor) ([]event.Event, *utils.EventCursor, error) {
	op := "events.list"

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var (
		conds []string
		args  []any
	)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Title != nil {
		conds = append(conds, fmt.Sprintf("title ILIKE %s", arg("%"+*filter.Title+"%")))
	}
	if filter.Department != nil {
		conds = append(conds, fmt.Sprintf("%s = ANY(departments)", arg(*filter.Department)))
	}
	if filter.Category != nil {
		conds = append(conds, fmt.Sprintf("%s = ANY(categories)", arg(*filter.Category)))
	}

	if filter.EventType != nil {
		today := filter.Today
		if today.IsZero() {
			today = time.Now().UTC()
		}
		today = today.Truncate(24 * time.Hour)

		switch *filter.EventType {
		case "ongoing":
			conds = append(conds, fmt.Sprintf("date = %s", arg(today)))
		case "upcoming":
			conds = append(conds, fmt.Sprintf("date > %s", arg(today)))
		case "past":
			conds = append(conds, fmt.Sprintf("date < %s", arg(today)))
		}
	}

	if cursor != nil {
		conds = append(conds, fmt.Sprintf("(date, id) > (%s, %s)", arg(cursor.Date), arg(cursor.ID)))
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	// fetch one extra row to decide whether another page exists
	query := fmt.Sprintf(
		`SELECT %s FROM events %s ORDER BY date ASC, id ASC LIMIT %s`,
		eventColumns, where, arg(limit+1),
	)

	var rows pgx.Rows

	err := r.observe(op, func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, query, args...)
		return qerr
	})

	if err != nil {
		return nil, nil, err
	}

	defer rows.Close()

	out := make([]event.Event, 0, limit)

	for rows.Next() {
		var e event.Event

		if err := rows.Scan(eventScanTargets(&e)...); err != nil {
			return nil, nil, err
		}

		out = append(out, e)
	}

	if rows.Err() != nil {
		return nil, nil, rows.Err()
	}

	var next *utils.EventCursor

	if len(out) > limit {
		out = out[:limit]
		last := out[len(out)-1]
		next = &utils.EventCursor{Date: last.Date, ID: last.ID}
	}

	return out, next, nil
}

func (r *EventsRepo) Update(ctx context.Context, e event.Event, mainImage, qrImage *event.Image) (event.Event, error) {
	op := "events.update"

	sets := []string{
		"title = $2", "description = $3", "date = $4", "time = $5", "venue = $6",
		"departments = $7", "categories = $8", "organizers = $9",
		"contact_email = $10", "contact_phone = $11", "google_form = $12", "volunteer_form = $13",
		"updated_by = $14", "updated_at = NOW()",
	}
	args := []any{
		e.ID, e.Title, e.Description, e.Date, e.Time, e.Venue,
		e.Departments, e.Categories, e.Organizers,
		e.ContactEmail, e.ContactPhone, e.GoogleForm, e.VolunteerForm,
		e.UpdatedBy,
	}

	// images are replace-only: absent means keep the stored blob
	if mainImage != nil {
		args = append(args, mainImage.Data, mainImage.ContentType)
		sets = append(sets,
			fmt.Sprintf("main_image = $%d", len(args)-1),
			fmt.Sprintf("main_image_type = $%d", len(args)),
		)
	}
	if qrImage != nil {
		args = append(args, qrImage.Data, qrImage.ContentType)
		sets = append(sets,
			fmt.Sprintf("qr_image = $%d", len(args)-1),
			fmt.Sprintf("qr_image_type = $%d", len(args)),
		)
	}

	query := fmt.Sprintf(
		`UPDATE events SET %s WHERE id = $1 RETURNING %s`,
		strings.Join(sets, ", "), eventColumns,
	)

	var updated event.Event

	err := r.observe(op, func() error {
		return r.pool.QueryRow(ctx, query, args...).Scan(eventScanTargets(&updated)...)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return event.Event{}, event.ErrNotFound
		}
		return event.Event{}, err
	}

	return updated, nil
}

func (r *EventsRepo) Delete(ctx context.Context, id string) error {
	op := "events.delete"

	var tag int64

	err := r.observe(op, func() error {
		ct, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
		tag = ct.RowsAffected()
		return err
	})

	if err != nil {
		return err
	}

	if tag == 0 {
		return event.ErrNotFound
	}

	return nil
}

// GetImage fetches one stored image blob. which is "main" or "qr".
func (r *EventsRepo) GetImage(ctx context.Context, id, which string) (event.Image, error) {
	op := "events.get_image"

	col := "main_image"
	typeCol := "main_image_type"

	if which == "qr" {
		col = "qr_image"
		typeCol = "qr_image_type"
	}

	var (
		data        []byte
		contentType *string
	)

	err := r.observe(op, func() error {
		return r.pool.QueryRow(ctx,
			fmt.Sprintf(`SELECT %s, %s FROM events WHERE id = $1`, col, typeCol), id,
		).Scan(&data, &contentType)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return event.Image{}, event.ErrNotFound
		}
		return event.Image{}, err
	}

	if data == nil || contentType == nil {
		return event.Image{}, event.ErrNotFound
	}

	return event.Image{Data: data, ContentType: *contentType}, nil
}

func eventScanTargets(e *event.Event) []any {
	return []any{
		&e.ID, &e.Title, &e.Description, &e.Date, &e.Time, &e.Venue,
		&e.Departments, &e.Categories, &e.Organizers,
		&e.ContactEmail, &e.ContactPhone, &e.GoogleForm, &e.VolunteerForm,
		&e.AddedBy, &e.UpdatedBy, &e.VerifiedByMarker,
		&e.HasMainImage, &e.HasQRImage,
		&e.CreatedAt, &e.UpdatedAt,
	}
}
