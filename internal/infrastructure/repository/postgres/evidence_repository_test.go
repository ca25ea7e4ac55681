package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/caseward/evidence-intake/internal/core/domain"
)

func classifiedItem() domain.QueueItem {
	return domain.QueueItem{
		ID:          "item-1",
		CaseID:      "case-1",
		Filename:    "contract.pdf",
		StoragePath: "item-1_contract.pdf",
		Classification: &domain.Classification{
			Class:      domain.ClassPrimary,
			SubType:    "contract",
			Confidence: 0.82,
		},
		Metadata:  domain.Metadata{domain.MetaLength: 1024},
		Summary:   "Draft services agreement.",
		CreatedAt: time.Now().UTC(),
	}
}

func TestPersistReturnsObjectID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("INSERT INTO evidence").
		WithArgs(
			sqlmock.AnyArg(), // generated object id
			"item-1",
			"case-1",
			"contract.pdf",
			"item-1_contract.pdf",
			"primary",
			"contract",
			0.82,
			false,
			sqlmock.AnyArg(), // metadata json
			"Draft services agreement.",
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
		).
		WillReturnRows(sqlmock.NewRows([]string{"object_id"}).AddRow("obj-42"))

	objectID, err := NewEvidenceRepository(db).Persist(context.Background(), classifiedItem())
	if err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if objectID != "obj-42" {
		t.Fatalf("expected object id from RETURNING clause, got %q", objectID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPersistRejectsUnclassifiedItem(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	item := classifiedItem()
	item.Classification = nil
	if _, err := NewEvidenceRepository(db).Persist(context.Background(), item); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPersistPropagatesQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("INSERT INTO evidence").WillReturnError(errors.New("connection reset"))

	if _, err := NewEvidenceRepository(db).Persist(context.Background(), classifiedItem()); err == nil {
		t.Fatal("expected query error to propagate")
	}
}

func TestEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS evidence").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := NewEvidenceRepository(db).EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindByCase(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT object_id FROM evidence").
		WithArgs("case-1").
		WillReturnRows(sqlmock.NewRows([]string{"object_id"}).AddRow("obj-2").AddRow("obj-1"))

	ids, err := NewEvidenceRepository(db).FindByCase(context.Background(), "case-1")
	if err != nil {
		t.Fatalf("FindByCase() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != "obj-2" || ids[1] != "obj-1" {
		t.Fatalf("unexpected ids %v", ids)
	}
}
