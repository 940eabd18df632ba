package pgcat

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyquery/internal/cqlerr"
	"cyquery/internal/gcache"
	"cyquery/internal/graph"
	"cyquery/internal/labelcat"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Store{db: db, graphName: "cyquery"}, mock
}

func TestVertexByIDReturnsNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT label_id, properties FROM cyquery_vertices").
		WithArgs("cyquery", int64(42)).
		WillReturnError(sql.ErrNoRows)

	_, err := s.VertexByID(context.Background(), graph.GraphID(42))
	require.Error(t, err)
	kind, ok := cqlerr.Of(err)
	require.True(t, ok)
	assert.Equal(t, cqlerr.NotFound, kind)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVertexByIDDecodesProperties(t *testing.T) {
	s, mock := newMockStore(t)
	rows := sqlmock.NewRows([]string{"label_id", "properties"}).
		AddRow(int64(7), []byte(`{"name":"alice","age":30}`))
	mock.ExpectQuery("SELECT label_id, properties FROM cyquery_vertices").
		WithArgs("cyquery", int64(1)).
		WillReturnRows(rows)

	v, err := s.VertexByID(context.Background(), graph.GraphID(1))
	require.NoError(t, err)
	assert.Equal(t, graph.GraphID(1), v.ID())
	assert.Equal(t, graph.LabelID(7), v.Label())
}

func TestAdjacencySeparatesSelfLoopsFromOutIn(t *testing.T) {
	s, mock := newMockStore(t)
	rows := sqlmock.NewRows([]string{"id", "start_id", "end_id", "label_id", "properties"}).
		AddRow(int64(100), int64(1), int64(1), int64(3), []byte(`{}`))
	mock.ExpectQuery("SELECT id, start_id, end_id, label_id, properties FROM cyquery_edges WHERE graph_name = \\$1 AND start_id = \\$2 AND start_id = end_id").
		WithArgs("cyquery", int64(1)).
		WillReturnRows(rows)

	edges, err := s.Adjacency(context.Background(), graph.GraphID(1), gcache.AdjSelf, 0)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.True(t, edges[0].IsSelfLoop())
}

func TestEnsureLabelInsertsNewLabel(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT id, kind FROM cyquery_labels").
		WithArgs("cyquery", "Person").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO cyquery_labels").
		WithArgs("cyquery", "Person", int16(labelcat.LabelVertex)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	lbl, err := s.EnsureLabel(context.Background(), "Person", labelcat.LabelVertex)
	require.NoError(t, err)
	assert.Equal(t, graph.LabelID(5), lbl.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureLabelRejectsKindMismatch(t *testing.T) {
	s, mock := newMockStore(t)
	rows := sqlmock.NewRows([]string{"id", "kind"}).AddRow(int64(1), int16(labelcat.LabelVertex))
	mock.ExpectQuery("SELECT id, kind FROM cyquery_labels").
		WithArgs("cyquery", "KNOWS").
		WillReturnRows(rows)

	_, err := s.EnsureLabel(context.Background(), "KNOWS", labelcat.LabelEdge)
	require.Error(t, err)
	kind, ok := cqlerr.Of(err)
	require.True(t, ok)
	assert.Equal(t, cqlerr.LabelKindMismatch, kind)
}
