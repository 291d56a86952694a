package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"spacehub/internal/models"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

func setupMockServer(t *testing.T) (*http.ServeMux, *BookingSheet) {
	t.Helper()
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	srv, err := sheets.NewService(context.Background(), option.WithEndpoint(server.URL), option.WithoutAuthentication())
	if err != nil {
		t.Fatalf("sheets service: %v", err)
	}
	return mux, newBookingSheet(srv, "bookings_tid")
}

func testBooking(id int64) *models.Booking {
	return &models.Booking{
		ID:            id,
		UserID:        7,
		SpaceID:       3,
		FacilityID:    1,
		StartTime:     time.Date(2030, 6, 11, 10, 0, 0, 0, time.UTC),
		EndTime:       time.Date(2030, 6, 11, 12, 0, 0, 0, time.UTC),
		Participants:  4,
		TotalPrice:    100,
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentPending,
		CreatedAt:     time.Date(2030, 6, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2030, 6, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestBookingRowValues(t *testing.T) {
	values := bookingRowValues(testBooking(123))

	expected := []interface{}{
		int64(123), int64(7), int64(3), int64(1),
		"2030-06-11T10:00:00", "2030-06-11T12:00:00",
		4, 100.0, 0.0, "pending", "pending",
		"2030-06-01 09:00:00", "2030-06-01 09:30:00",
	}
	if len(values) != len(expected) || len(values) != len(bookingHeaders) {
		t.Fatalf("Expected %d values, got %d", len(expected), len(values))
	}
	for i, v := range values {
		if v != expected[i] {
			t.Errorf("At index %d: expected %v, got %v", i, expected[i], v)
		}
	}
}

func TestCellIDAndFirstRow(t *testing.T) {
	if id := cellID([]interface{}{"42"}); id != 42 {
		t.Errorf("Expected 42, got %d", id)
	}
	if id := cellID([]interface{}{float64(7)}); id != 7 {
		t.Errorf("Expected 7, got %d", id)
	}
	if id := cellID([]interface{}{"ID"}); id != 0 {
		t.Errorf("Expected 0 for header, got %d", id)
	}
	if id := cellID(nil); id != 0 {
		t.Errorf("Expected 0 for empty row, got %d", id)
	}

	if row, ok := firstRow("Bookings!A10:M10"); !ok || row != 10 {
		t.Errorf("Expected row 10, got %d", row)
	}
	if _, ok := firstRow("garbage"); ok {
		t.Error("Expected no row for malformed range")
	}
}

func TestServiceAccountEmail(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "creds.json")
	if err := os.WriteFile(path, []byte(`{"client_email":"svc@project.iam.gserviceaccount.com"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	email, err := ServiceAccountEmail(path)
	if err != nil {
		t.Fatalf("ServiceAccountEmail failed: %v", err)
	}
	if email != "svc@project.iam.gserviceaccount.com" {
		t.Errorf("unexpected email %s", email)
	}

	empty := filepath.Join(dir, "empty.json")
	_ = os.WriteFile(empty, []byte(`{}`), 0o600)
	if _, err := ServiceAccountEmail(empty); err == nil {
		t.Error("Expected error for missing client_email")
	}
	if _, err := ServiceAccountEmail(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestBookingSheet_TestConnection(t *testing.T) {
	mux, s := setupMockServer(t)
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{Values: [][]interface{}{{"ID"}}})
	})
	if err := s.TestConnection(context.Background()); err != nil {
		t.Errorf("TestConnection failed: %v", err)
	}
}

func TestBookingSheet_WarmUpCache(t *testing.T) {
	mux, s := setupMockServer(t)
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A:A", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{
			Values: [][]interface{}{{"ID"}, {"123"}, {"456"}},
		})
	})
	if err := s.WarmUpCache(context.Background()); err != nil {
		t.Fatalf("WarmUpCache failed: %v", err)
	}
	if row, ok := s.getCachedRow(123); !ok || row != 2 {
		t.Errorf("Expected row 2 for ID 123, got %d", row)
	}
	if row, ok := s.getCachedRow(456); !ok || row != 3 {
		t.Errorf("Expected row 3 for ID 456, got %d", row)
	}
}

func TestBookingSheet_UpsertAppends(t *testing.T) {
	mux, s := setupMockServer(t)
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A:A", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{Values: [][]interface{}{{"ID"}}})
	})
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A:A:append", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.AppendValuesResponse{
			Updates: &sheets.UpdateValuesResponse{UpdatedRange: "Bookings!A10:M10"},
		})
	})

	if err := s.UpsertBooking(context.Background(), testBooking(789)); err != nil {
		t.Fatalf("UpsertBooking failed: %v", err)
	}
	if row, _ := s.getCachedRow(789); row != 10 {
		t.Errorf("Expected cached row 10, got %d", row)
	}
}

func TestBookingSheet_UpsertUpdates(t *testing.T) {
	mux, s := setupMockServer(t)
	s.setCachedRow(123, 2)
	called := false
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A2:M2", func(w http.ResponseWriter, r *http.Request) {
		called = true
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})
	if err := s.UpsertBooking(context.Background(), testBooking(123)); err != nil {
		t.Fatalf("UpsertBooking failed: %v", err)
	}
	if !called {
		t.Error("Expected row update request")
	}
	if err := s.UpsertBooking(context.Background(), nil); err == nil {
		t.Error("Expected error for nil booking")
	}
}

func TestBookingSheet_UpdateBookingStatus(t *testing.T) {
	mux, s := setupMockServer(t)
	s.setCachedRow(123, 2)
	var statusBody sheets.ValueRange
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!J2:J2", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&statusBody)
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!M2:M2", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})

	if err := s.UpdateBookingStatus(context.Background(), 123, "confirmed"); err != nil {
		t.Fatalf("UpdateBookingStatus failed: %v", err)
	}
	if len(statusBody.Values) != 1 || statusBody.Values[0][0] != "confirmed" {
		t.Errorf("unexpected status body: %+v", statusBody.Values)
	}
}

func TestBookingSheet_UpdateStatusMissingRow(t *testing.T) {
	mux, s := setupMockServer(t)
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A:A", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{Values: [][]interface{}{{"ID"}, {"5"}}})
	})
	err := s.UpdateBookingStatus(context.Background(), 99, "confirmed")
	if err != ErrRowNotFound {
		t.Errorf("Expected ErrRowNotFound, got %v", err)
	}
}

func TestBookingSheet_ReplaceBookings(t *testing.T) {
	mux, s := setupMockServer(t)
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A2:Z:clear", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ClearValuesResponse{})
	})
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A1:M3", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})

	bookings := []*models.Booking{testBooking(1), testBooking(2)}
	if err := s.ReplaceBookings(context.Background(), bookings); err != nil {
		t.Fatalf("ReplaceBookings failed: %v", err)
	}
	if row, _ := s.getCachedRow(2); row != 3 {
		t.Errorf("Expected row 3 for booking 2, got %d", row)
	}

	s.ClearCache()
	if _, ok := s.getCachedRow(2); ok {
		t.Error("Expected cache to be empty")
	}
}

func TestBookingSheet_EnsureHeader(t *testing.T) {
	mux, s := setupMockServer(t)
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A1:M1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})
	if err := s.EnsureHeader(context.Background()); err != nil {
		t.Errorf("EnsureHeader failed: %v", err)
	}
}
