package properties

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"inmuebles-backend/internal/domain"
	"inmuebles-backend/internal/infrastructure/database"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeAudit struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (f *fakeAudit) Record(ev domain.AuditEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeAudit) actions() []domain.AuditAction {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.AuditAction, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Action)
	}
	return out
}

type fakeBlobs struct {
	deleteErr error
	deleted   []string
}

func (f *fakeBlobs) Delete(ctx context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeBlobs) KeyFromURL(url string) (string, error) {
	const base = "https://cdn.test/"
	if len(url) <= len(base) || url[:len(base)] != base {
		return "", errors.New("foreign url")
	}
	return url[len(base):], nil
}

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func setupService(t *testing.T) (*Service, *gorm.DB, *fakeAudit, *fakeBlobs) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	audit := &fakeAudit{}
	blobs := &fakeBlobs{}
	svc := &Service{DB: db, Storage: blobs, Audit: audit, Now: func() time.Time { return fixedNow }}
	return svc, db, audit, blobs
}

func validInput(slug, code string) PropertyInput {
	return PropertyInput{
		Slug:         slug,
		Code:         code,
		Title:        "Apartamento con vista al parque",
		Type:         domain.TypeApartment,
		BusinessMode: domain.ModeSale,
		Condition:    domain.ConditionUsed,
		Price:        domain.Price{Amount: 450000000, Currency: domain.COP},
		Location: domain.Location{
			Country:    "Colombia",
			Department: "Antioquia",
			City:       "Medellín",
			Address:    "Calle 10 # 43-12",
		},
		Features: domain.Features{Bedrooms: 3, Bathrooms: 2, LotArea: 95},
	}
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestCreate_WritesDraftAndReservations(t *testing.T) {
	svc, db, audit, _ := setupService(t)
	ctx := context.Background()

	res, err := svc.Create(ctx, "admin-1", validInput("  Casa-Centro ", "apt-01"))
	require.NoError(t, err)
	assert.Equal(t, "casa-centro", res.Slug)

	p, err := svc.GetAdmin(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, p.Status)
	assert.Equal(t, int64(0), p.Views)
	assert.Equal(t, "APT-01", p.Code)
	assert.True(t, p.CreatedAt.Equal(p.UpdatedAt))
	assert.Nil(t, p.PublishedAt)

	var sr domain.SlugReservation
	require.NoError(t, db.First(&sr, "slug = ?", "casa-centro").Error)
	assert.Equal(t, res.ID, sr.PropertyID)
	var cr domain.CodeReservation
	require.NoError(t, db.First(&cr, "codigo = ?", "APT-01").Error)
	assert.Equal(t, res.ID, cr.PropertyID)

	assert.Equal(t, []domain.AuditAction{domain.ActionPropertyCreated}, audit.actions())
}

func TestCreate_Conflicts(t *testing.T) {
	svc, db, _, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "admin-1", validInput("a", "C1"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, "admin-1", validInput("a", "C2"))
	assert.ErrorIs(t, err, domain.ErrSlugTaken)

	_, err = svc.Create(ctx, "admin-1", validInput("b", "c1"))
	assert.ErrorIs(t, err, domain.ErrCodeTaken)

	// nothing from the failed attempts was written
	assert.Equal(t, int64(1), countRows(t, db, &domain.Property{}))
	assert.Equal(t, int64(1), countRows(t, db, &domain.SlugReservation{}))
	assert.Equal(t, int64(1), countRows(t, db, &domain.CodeReservation{}))

	ok, err := svc.SlugAvailable(ctx, "b", uuid.Nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreate_Validation(t *testing.T) {
	svc, db, _, _ := setupService(t)
	ctx := context.Background()

	in := validInput("casa", "C1")
	in.Title = "Casa"
	_, err := svc.Create(ctx, "admin-1", in)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "titulo", verr.Field)

	in = validInput("casa", "C1")
	in.Price.Amount = 0
	_, err = svc.Create(ctx, "admin-1", in)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "precio.valor", verr.Field)

	in = validInput("casa", "C1")
	estrato := 7
	in.Features.Stratum = &estrato
	_, err = svc.Create(ctx, "admin-1", in)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "caracteristicas.estrato", verr.Field)

	in = validInput("casa", "C1")
	in.Code = "ABCDEFGHIJKLMNOPQRSTUVWXYZ012345"
	_, err = svc.Create(ctx, "admin-1", in)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "codigoPropiedad", verr.Field)

	in = validInput("casa", "C1")
	in.Type = "castillo"
	_, err = svc.Create(ctx, "admin-1", in)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "tipo", verr.Field)

	assert.Equal(t, int64(0), countRows(t, db, &domain.Property{}))
}

func TestCreate_ConcurrentSameSlug(t *testing.T) {
	svc, db, _, _ := setupService(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(ctx, "admin-1", validInput("mismo-slug", fmt.Sprintf("C-%d", i)))
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrSlugTaken)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, int64(1), countRows(t, db, &domain.Property{}))
	assert.Equal(t, int64(1), countRows(t, db, &domain.CodeReservation{}))
}

func TestUpdate_SameSlugKeepsReservationsAndServerFields(t *testing.T) {
	svc, db, audit, _ := setupService(t)
	ctx := context.Background()

	res, err := svc.Create(ctx, "admin-1", validInput("casa", "C1"))
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, "admin-1", res.ID, domain.StatusActive)
	require.NoError(t, err)
	require.NoError(t, svc.RegisterView(ctx, "casa"))
	require.NoError(t, svc.RegisterView(ctx, "casa"))

	later := fixedNow.Add(time.Hour)
	svc.Now = func() time.Time { return later }

	in := UpdateInput{PropertyInput: validInput("casa", "C1")}
	in.Title = "Apartamento remodelado con vista al parque"
	_, err = svc.Update(ctx, "admin-1", res.ID, in)
	require.NoError(t, err)

	p, err := svc.GetAdmin(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "Apartamento remodelado con vista al parque", p.Title)
	assert.Equal(t, domain.StatusActive, p.Status)
	assert.Equal(t, int64(2), p.Views)
	assert.True(t, p.CreatedAt.Equal(fixedNow))
	assert.True(t, p.UpdatedAt.Equal(later))
	require.NotNil(t, p.PublishedAt)
	assert.True(t, p.PublishedAt.Equal(fixedNow))

	assert.Equal(t, int64(1), countRows(t, db, &domain.SlugReservation{}))
	assert.Equal(t, int64(1), countRows(t, db, &domain.CodeReservation{}))
	assert.Contains(t, audit.actions(), domain.ActionPropertyEdited)
}

func TestUpdate_ChangesSlugAndCode(t *testing.T) {
	svc, db, _, _ := setupService(t)
	ctx := context.Background()

	res, err := svc.Create(ctx, "admin-1", validInput("vieja", "OLD"))
	require.NoError(t, err)

	// a stale hint must not matter: the stored slug is what gets released
	in := UpdateInput{PropertyInput: validInput("nueva", "NEW"), PreviousSlug: "otra-cosa", PreviousCode: "XXX"}
	_, err = svc.Update(ctx, "admin-1", res.ID, in)
	require.NoError(t, err)

	var slugs []domain.SlugReservation
	require.NoError(t, db.Find(&slugs).Error)
	require.Len(t, slugs, 1)
	assert.Equal(t, "nueva", slugs[0].Slug)
	assert.Equal(t, res.ID, slugs[0].PropertyID)

	var codes []domain.CodeReservation
	require.NoError(t, db.Find(&codes).Error)
	require.Len(t, codes, 1)
	assert.Equal(t, "NEW", codes[0].Code)

	// the released slug can be taken by someone else
	_, err = svc.Create(ctx, "admin-1", validInput("vieja", "OLD"))
	assert.NoError(t, err)
}

func TestUpdate_ConflictLeavesEverythingUnchanged(t *testing.T) {
	svc, db, _, _ := setupService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, "admin-1", validInput("a", "CA"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, "admin-1", validInput("b", "CB"))
	require.NoError(t, err)

	in := UpdateInput{PropertyInput: validInput("b", "CA")}
	in.Title = "Título que no debe guardarse"
	_, err = svc.Update(ctx, "admin-1", a.ID, in)
	assert.ErrorIs(t, err, domain.ErrSlugTaken)

	in = UpdateInput{PropertyInput: validInput("a2", "CB")}
	_, err = svc.Update(ctx, "admin-1", a.ID, in)
	assert.ErrorIs(t, err, domain.ErrCodeTaken)

	p, err := svc.GetAdmin(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", p.Slug)
	assert.Equal(t, "Apartamento con vista al parque", p.Title)

	var sr domain.SlugReservation
	require.NoError(t, db.First(&sr, "slug = ?", "a").Error)
	assert.Equal(t, a.ID, sr.PropertyID)
	assert.Equal(t, int64(2), countRows(t, db, &domain.SlugReservation{}))
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _, _, _ := setupService(t)
	_, err := svc.Update(context.Background(), "admin-1", uuid.New(), UpdateInput{PropertyInput: validInput("x", "X")})
	assert.ErrorIs(t, err, domain.ErrPropertyNotFound)
}

func TestSlugAvailable(t *testing.T) {
	svc, _, _, _ := setupService(t)
	ctx := context.Background()
	res, err := svc.Create(ctx, "admin-1", validInput("casa", "C1"))
	require.NoError(t, err)

	ok, err := svc.SlugAvailable(ctx, "CASA", uuid.Nil)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.SlugAvailable(ctx, "casa", res.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.SlugAvailable(ctx, "casa", uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChangeStatus_PublishedOnce(t *testing.T) {
	svc, _, audit, _ := setupService(t)
	ctx := context.Background()
	res, err := svc.Create(ctx, "admin-1", validInput("casa", "C1"))
	require.NoError(t, err)

	p, err := svc.ChangeStatus(ctx, "admin-1", res.ID, domain.StatusActive)
	require.NoError(t, err)
	require.NotNil(t, p.PublishedAt)
	first := *p.PublishedAt

	svc.Now = func() time.Time { return fixedNow.Add(48 * time.Hour) }
	_, err = svc.ChangeStatus(ctx, "admin-1", res.ID, domain.StatusInactive)
	require.NoError(t, err)
	p, err = svc.ChangeStatus(ctx, "admin-1", res.ID, domain.StatusActive)
	require.NoError(t, err)
	assert.True(t, p.PublishedAt.Equal(first))

	stored, err := svc.GetAdmin(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, stored.PublishedAt.Equal(first))

	assert.Equal(t, []domain.AuditAction{
		domain.ActionPropertyCreated,
		domain.ActionPropertyPublished,
		domain.ActionPropertyArchived,
		domain.ActionPropertyPublished,
	}, audit.actions())

	_, err = svc.ChangeStatus(ctx, "admin-1", res.ID, "eliminado")
	var verr *domain.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestPublicReadsOnlyActive(t *testing.T) {
	svc, _, _, _ := setupService(t)
	ctx := context.Background()
	res, err := svc.Create(ctx, "admin-1", validInput("casa", "C1"))
	require.NoError(t, err)

	_, err = svc.GetBySlug(ctx, "casa")
	assert.ErrorIs(t, err, domain.ErrPropertyNotFound)

	require.NoError(t, svc.RegisterView(ctx, "casa"))
	p, err := svc.GetAdmin(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.Views)

	_, err = svc.ChangeStatus(ctx, "admin-1", res.ID, domain.StatusActive)
	require.NoError(t, err)
	require.NoError(t, svc.RegisterView(ctx, "casa"))

	p, err = svc.GetBySlug(ctx, "casa")
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.Views)
}

func TestListAdmin_NewestFirst(t *testing.T) {
	svc, _, _, _ := setupService(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		at := fixedNow.Add(time.Duration(i) * time.Minute)
		svc.Now = func() time.Time { return at }
		_, err := svc.Create(ctx, "admin-1", validInput(fmt.Sprintf("p-%d", i), fmt.Sprintf("C%d", i)))
		require.NoError(t, err)
	}
	list, err := svc.ListAdmin(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "p-2", list[0].Slug)
	assert.Equal(t, "p-0", list[2].Slug)
}

func withImages(in PropertyInput, urls ...string) PropertyInput {
	in.Images = urls
	in.CoverImage = urls[0]
	return in
}

func TestDeleteImage_Success(t *testing.T) {
	svc, _, audit, blobs := setupService(t)
	ctx := context.Background()
	res, err := svc.Create(ctx, "admin-1", withImages(validInput("casa", "C1"),
		"https://cdn.test/propiedades/C1/1.jpg", "https://cdn.test/propiedades/C1/2.jpg"))
	require.NoError(t, err)

	p, err := svc.DeleteImage(ctx, "admin-1", res.ID, "https://cdn.test/propiedades/C1/1.jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.test/propiedades/C1/2.jpg"}, []string(p.Images))
	assert.Equal(t, "", p.CoverImage)
	assert.Equal(t, []string{"propiedades/C1/1.jpg"}, blobs.deleted)
	assert.Contains(t, audit.actions(), domain.ActionImageDeleted)

	stored, err := svc.GetAdmin(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.test/propiedades/C1/2.jpg"}, []string(stored.Images))
}

func TestDeleteImage_StorageFailureLeavesDocument(t *testing.T) {
	svc, _, _, blobs := setupService(t)
	ctx := context.Background()
	res, err := svc.Create(ctx, "admin-1", withImages(validInput("casa", "C1"),
		"https://cdn.test/propiedades/C1/1.jpg", "https://cdn.test/propiedades/C1/2.jpg"))
	require.NoError(t, err)

	blobs.deleteErr = errors.New("bucket unavailable")
	_, err = svc.DeleteImage(ctx, "admin-1", res.ID, "https://cdn.test/propiedades/C1/1.jpg")
	assert.ErrorIs(t, err, domain.ErrStorageDelete)

	stored, err := svc.GetAdmin(ctx, res.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Images, 2)
	assert.Equal(t, "https://cdn.test/propiedades/C1/1.jpg", stored.CoverImage)
}

func TestDeleteImage_DocumentFailureIsOrphan(t *testing.T) {
	svc, db, _, blobs := setupService(t)
	ctx := context.Background()
	res, err := svc.Create(ctx, "admin-1", withImages(validInput("casa", "C1"), "https://cdn.test/propiedades/C1/1.jpg"))
	require.NoError(t, err)

	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:fail_update", func(tx *gorm.DB) {
		_ = tx.AddError(errors.New("write refused"))
	}))

	_, err = svc.DeleteImage(ctx, "admin-1", res.ID, "https://cdn.test/propiedades/C1/1.jpg")
	assert.ErrorIs(t, err, domain.ErrImageOrphaned)
	assert.Equal(t, []string{"propiedades/C1/1.jpg"}, blobs.deleted)
}

func TestDeleteImage_Rejections(t *testing.T) {
	svc, _, _, blobs := setupService(t)
	ctx := context.Background()
	res, err := svc.Create(ctx, "admin-1", withImages(validInput("casa", "C1"), "https://cdn.test/propiedades/C1/1.jpg"))
	require.NoError(t, err)

	_, err = svc.DeleteImage(ctx, "admin-1", res.ID, "https://cdn.test/propiedades/C9/9.jpg")
	assert.ErrorIs(t, err, domain.ErrImageNotInProperty)

	_, err = svc.DeleteImage(ctx, "admin-1", uuid.New(), "https://cdn.test/propiedades/C1/1.jpg")
	assert.ErrorIs(t, err, domain.ErrPropertyNotFound)

	assert.Empty(t, blobs.deleted)
}

func TestAddImages_KeepsExistingCover(t *testing.T) {
	svc, _, _, _ := setupService(t)
	ctx := context.Background()
	res, err := svc.Create(ctx, "admin-1", validInput("casa", "C1"))
	require.NoError(t, err)

	p, dropped, err := svc.AddImages(ctx, "admin-1", res.ID, []string{"https://cdn.test/a.jpg", "https://cdn.test/b.jpg"}, "https://cdn.test/b.jpg")
	require.NoError(t, err)
	assert.Empty(t, dropped)
	assert.Equal(t, "https://cdn.test/b.jpg", p.CoverImage)

	p, _, err = svc.AddImages(ctx, "admin-1", res.ID, []string{"https://cdn.test/b.jpg", "https://cdn.test/c.jpg"}, "https://cdn.test/c.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/b.jpg", p.CoverImage)
	assert.Equal(t, []string{"https://cdn.test/a.jpg", "https://cdn.test/b.jpg", "https://cdn.test/c.jpg"}, []string(p.Images))
}

func TestAddImages_NeverExceedsGalleryCap(t *testing.T) {
	svc, _, _, blobs := setupService(t)
	ctx := context.Background()

	in := validInput("casa", "C1")
	for i := 0; i < 38; i++ {
		in.Images = append(in.Images, fmt.Sprintf("https://cdn.test/old/%02d.jpg", i))
	}
	res, err := svc.Create(ctx, "admin-1", in)
	require.NoError(t, err)

	// two upload batches computed from the same 38-image snapshot
	p, dropped, err := svc.AddImages(ctx, "admin-1", res.ID, []string{"https://cdn.test/x1.jpg", "https://cdn.test/x2.jpg"}, "")
	require.NoError(t, err)
	assert.Empty(t, dropped)
	assert.Len(t, p.Images, 40)

	p, dropped, err = svc.AddImages(ctx, "admin-1", res.ID, []string{"https://cdn.test/y1.jpg", "https://cdn.test/y2.jpg"}, "https://cdn.test/y1.jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.test/y1.jpg", "https://cdn.test/y2.jpg"}, dropped)
	assert.Len(t, p.Images, 40)
	assert.Equal(t, "https://cdn.test/old/00.jpg", p.CoverImage)
	assert.Equal(t, []string{"y1.jpg", "y2.jpg"}, blobs.deleted)

	stored, err := svc.GetAdmin(ctx, res.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Images, 40)

	// the stored gallery still passes form validation
	again := UpdateInput{PropertyInput: in}
	again.Images = stored.Images
	again.CoverImage = stored.CoverImage
	_, err = svc.Update(ctx, "admin-1", res.ID, again)
	assert.NoError(t, err)
}

func TestUpdate_KeepsStatusWrittenDuringEdit(t *testing.T) {
	svc, db, _, _ := setupService(t)
	ctx := context.Background()

	res, err := svc.Create(ctx, "admin-1", validInput("casa", "C1"))
	require.NoError(t, err)

	// another writer publishes the property and counts views between the
	// edit's read and its write
	published := fixedNow.Add(time.Minute)
	fired := false
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:publish_during_edit", func(tx *gorm.DB) {
		if fired || tx.Statement.Table != "propiedades" {
			return
		}
		fired = true
		tx.Session(&gorm.Session{NewDB: true}).Exec(
			"UPDATE propiedades SET estado_publicacion = ?, vistas = ?, publicado_en = ? WHERE id = ?",
			domain.StatusActive, 57, published, res.ID)
	}))

	in := UpdateInput{PropertyInput: validInput("casa", "C1")}
	in.Title = "Apartamento remodelado con vista al parque"
	_, err = svc.Update(ctx, "admin-1", res.ID, in)
	require.NoError(t, err)
	require.True(t, fired)

	p, err := svc.GetAdmin(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "Apartamento remodelado con vista al parque", p.Title)
	assert.Equal(t, domain.StatusActive, p.Status)
	assert.Equal(t, int64(57), p.Views)
	require.NotNil(t, p.PublishedAt)
	assert.True(t, p.PublishedAt.Equal(published))
	assert.True(t, p.CreatedAt.Equal(fixedNow))
}

// reserveBeforeInsert registers a create callback that, the first time a row
// is about to be inserted into table, slips in a rival reservation for value
// owned by another property.
func reserveBeforeInsert(t *testing.T, db *gorm.DB, table, column, value string) *bool {
	t.Helper()
	fired := new(bool)
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:rival_"+table, func(tx *gorm.DB) {
		if *fired || tx.Statement.Table != table {
			return
		}
		*fired = true
		tx.Session(&gorm.Session{NewDB: true}).Exec(
			fmt.Sprintf("INSERT INTO %s (%s, propiedad_id) VALUES (?, ?)", table, column),
			value, uuid.New())
	}))
	return fired
}

func TestCreate_RivalReservesSlugAfterCheck(t *testing.T) {
	svc, db, audit, _ := setupService(t)
	fired := reserveBeforeInsert(t, db, "slug_unicos", "slug", "casa")

	_, err := svc.Create(context.Background(), "admin-1", validInput("casa", "C1"))
	require.True(t, *fired)
	assert.ErrorIs(t, err, domain.ErrSlugTaken)

	assert.Equal(t, int64(0), countRows(t, db, &domain.Property{}))
	assert.Equal(t, int64(0), countRows(t, db, &domain.CodeReservation{}))
	assert.Empty(t, audit.actions())
}

func TestCreate_RivalReservesCodeAfterCheck(t *testing.T) {
	svc, db, _, _ := setupService(t)
	fired := reserveBeforeInsert(t, db, "codigo_unicos", "codigo", "C1")

	_, err := svc.Create(context.Background(), "admin-1", validInput("casa", "C1"))
	require.True(t, *fired)
	assert.ErrorIs(t, err, domain.ErrCodeTaken)

	assert.Equal(t, int64(0), countRows(t, db, &domain.Property{}))
	assert.Equal(t, int64(0), countRows(t, db, &domain.SlugReservation{}))
}

func TestUpdate_RivalReservesNewSlugAfterCheck(t *testing.T) {
	svc, db, _, _ := setupService(t)
	ctx := context.Background()

	res, err := svc.Create(ctx, "admin-1", validInput("vieja", "C1"))
	require.NoError(t, err)
	fired := reserveBeforeInsert(t, db, "slug_unicos", "slug", "nueva")

	in := UpdateInput{PropertyInput: validInput("nueva", "C1")}
	in.Title = "Título que no debe guardarse"
	_, err = svc.Update(ctx, "admin-1", res.ID, in)
	require.True(t, *fired)
	assert.ErrorIs(t, err, domain.ErrSlugTaken)

	p, err := svc.GetAdmin(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "vieja", p.Slug)
	assert.Equal(t, "Apartamento con vista al parque", p.Title)

	var slugs []domain.SlugReservation
	require.NoError(t, db.Find(&slugs).Error)
	require.Len(t, slugs, 1)
	assert.Equal(t, "vieja", slugs[0].Slug)
	assert.Equal(t, res.ID, slugs[0].PropertyID)
	assert.Equal(t, int64(1), countRows(t, db, &domain.Property{}))
}

func TestCreate_SlugFromTitleWhenEmpty(t *testing.T) {
	svc, db, _, _ := setupService(t)
	ctx := context.Background()

	in := validInput("  ", "C1")
	in.Title = "Casa 3 Hab. en El Poblado"
	res, err := svc.Create(ctx, "admin-1", in)
	require.NoError(t, err)
	assert.Equal(t, "casa-3-hab-en-el-poblado", res.Slug)

	var sr domain.SlugReservation
	require.NoError(t, db.First(&sr, "slug = ?", "casa-3-hab-en-el-poblado").Error)
	assert.Equal(t, res.ID, sr.PropertyID)
}

func TestCreate_RejectsSlugOutsideURLAlphabet(t *testing.T) {
	svc, db, _, _ := setupService(t)
	ctx := context.Background()

	for _, bad := range []string{"Casa X/?", "casa--doble", "-casa", "niño", "casa_centro"} {
		_, err := svc.Create(ctx, "admin-1", validInput(bad, "C1"))
		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr), bad)
		assert.Equal(t, "slug", verr.Field, bad)
	}
	assert.Equal(t, int64(0), countRows(t, db, &domain.Property{}))
	assert.Equal(t, int64(0), countRows(t, db, &domain.SlugReservation{}))

	res, err := svc.Create(ctx, "admin-1", validInput("casa", "C1"))
	require.NoError(t, err)
	_, err = svc.Update(ctx, "admin-1", res.ID, UpdateInput{PropertyInput: validInput("casa nueva", "C1")})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "slug", verr.Field)
}
