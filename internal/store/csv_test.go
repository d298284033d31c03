package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeStoreFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inquiries.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadAllParsesRowsAndSkipsHeader(t *testing.T) {
	path := writeStoreFile(t, "id,userId,description,status\n"+
		"1,user01,Cannot log in,NEW\n"+
		"2,user02,\"Charged twice, please refund\",onhold\n")

	s := NewCSVStore()
	inquiries, err := s.ReadAll(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, inquiries, 2)

	assert.Equal(t, 1, inquiries[0].ID)
	assert.Equal(t, "user01", inquiries[0].UserID)
	assert.Equal(t, StatusNew, inquiries[0].Status)

	assert.Equal(t, "Charged twice, please refund", inquiries[1].Description)
	assert.Equal(t, StatusOnHold, inquiries[1].Status)
}

func TestReadAllDropsMalformedRows(t *testing.T) {
	path := writeStoreFile(t, "id,userId,description,status\n"+
		"1,user01,ok row,NEW\n"+
		"\n"+
		"notanid,user02,bad id,NEW\n"+
		"3,user03,bad status,SHIPPED\n"+
		"4,user04\n"+
		"5,user05,another ok row,RESOLVED\n")

	s := NewCSVStore()
	inquiries, err := s.ReadAll(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, inquiries, 2)
	assert.Equal(t, 1, inquiries[0].ID)
	assert.Equal(t, 5, inquiries[1].ID)
}

func TestReadAllMissingFileIsError(t *testing.T) {
	s := NewCSVStore()
	_, err := s.ReadAll(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestUpdateByIDAddsResponseColumn(t *testing.T) {
	path := writeStoreFile(t, "id,userId,description,status\n"+
		"1,user01,first,NEW\n"+
		"2,user02,second,NEW\n")

	s := NewCSVStore()
	err := s.UpdateByID(context.Background(), path, map[int]InquiryUpdate{
		2: {Status: StatusResolved, ResponseMessage: "done"},
	})
	require.NoError(t, err)

	rows, err := readRecords(path, false)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Untouched row keeps its status but is padded to the full width.
	require.Len(t, rows[1], 5)
	assert.Equal(t, "NEW", rows[1][3])
	assert.Equal(t, "", rows[1][4])

	assert.Equal(t, "RESOLVED", rows[2][3])
	assert.Equal(t, "done", rows[2][4])
}

func TestUpdateByIDIsIdempotent(t *testing.T) {
	path := writeStoreFile(t, "id,userId,description,status\n"+
		"1,user01,\"has, a comma\",NEW\n"+
		"2,user02,plain,NEW\n")

	updates := map[int]InquiryUpdate{
		1: {Status: StatusResolved, ResponseMessage: `say "hello", twice`},
	}

	s := NewCSVStore()
	require.NoError(t, s.UpdateByID(context.Background(), path, updates))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, s.UpdateByID(context.Background(), path, updates))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestUpdateByIDRoundTripsEscaping(t *testing.T) {
	tricky := "line one\nline two, with \"quotes\" and commas"
	path := writeStoreFile(t, "id,userId,description,status\n"+
		"1,user01,\"desc with, comma and \"\"quote\"\"\",NEW\n")

	s := NewCSVStore()
	require.NoError(t, s.UpdateByID(context.Background(), path, map[int]InquiryUpdate{
		1: {Status: StatusOnHold, ResponseMessage: tricky},
	}))

	// Re-escaping every field must preserve the original content exactly.
	rows, err := readRecords(path, false)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, `desc with, comma and "quote"`, rows[1][2])
	assert.Equal(t, tricky, rows[1][4])

	// A second full rewrite must not corrupt quoting progressively.
	require.NoError(t, s.UpdateByID(context.Background(), path, map[int]InquiryUpdate{
		1: {Status: StatusOnHold, ResponseMessage: tricky},
	}))
	rows, err = readRecords(path, false)
	require.NoError(t, err)
	assert.Equal(t, `desc with, comma and "quote"`, rows[1][2])
	assert.Equal(t, tricky, rows[1][4])
}

func TestUpdateByIDLeavesUnmatchedIDsUntouched(t *testing.T) {
	path := writeStoreFile(t, "id,userId,description,status\n"+
		"1,user01,first,NEW\n")

	s := NewCSVStore()
	require.NoError(t, s.UpdateByID(context.Background(), path, map[int]InquiryUpdate{
		42: {Status: StatusResolved, ResponseMessage: "nobody"},
	}))

	inquiries, err := s.ReadAll(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, inquiries, 1)
	assert.Equal(t, StatusNew, inquiries[0].Status)
}

func TestUpdateByIDEmptyFileIsFatal(t *testing.T) {
	path := writeStoreFile(t, "")

	s := NewCSVStore()
	err := s.UpdateByID(context.Background(), path, map[int]InquiryUpdate{
		1: {Status: StatusResolved, ResponseMessage: "x"},
	})
	require.ErrorIs(t, err, ErrEmptyStoreFile)
}

func TestUpdateByIDAbortsOnUnparsableRow(t *testing.T) {
	// Row 2 has a bare quote in an unquoted field; a rewrite built from
	// the rows that did parse would delete it for good. The update must
	// abort before writing and leave the file byte-identical.
	path := writeStoreFile(t, "id,userId,description,status\n"+
		"1,user01,first,NEW\n"+
		"2,user02,say \"hi there,NEW\n"+
		"3,user03,third,NEW\n")
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	s := NewCSVStore()
	err = s.UpdateByID(context.Background(), path, map[int]InquiryUpdate{
		1: {Status: StatusResolved, ResponseMessage: "done"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unparsable line")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))

	// Best-effort ingest still just drops the bad row.
	inquiries, err := s.ReadAll(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, inquiries, 2)
	assert.Equal(t, 1, inquiries[0].ID)
	assert.Equal(t, 3, inquiries[1].ID)
}

func TestReadByStatusAndUser(t *testing.T) {
	path := writeStoreFile(t, "id,userId,description,status\n"+
		"1,user01,a,NEW\n"+
		"2,user02,b,RESOLVED\n"+
		"3,user01,c,NEW\n")

	s := NewCSVStore()

	byStatus, err := s.ReadByStatus(context.Background(), path, StatusNew)
	require.NoError(t, err)
	require.Len(t, byStatus, 2)

	byUser, err := s.ReadByUser(context.Background(), path, "user01")
	require.NoError(t, err)
	require.Len(t, byUser, 2)
	assert.Equal(t, 1, byUser[0].ID)
	assert.Equal(t, 3, byUser[1].ID)
}

func TestParseInquiryStatus(t *testing.T) {
	for in, want := range map[string]InquiryStatus{
		"new":      StatusNew,
		"NEW":      StatusNew,
		"Resolved": StatusResolved,
		"onhold":   StatusOnHold,
		"ON_HOLD":  StatusOnHold,
	} {
		got, err := ParseInquiryStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseInquiryStatus("SHIPPED")
	require.Error(t, err)
}
