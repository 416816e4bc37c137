package handlers

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/google/uuid"
	"github.com/stayline/hotel-admin-backend/internal/models"
	"github.com/stayline/hotel-admin-backend/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type upload struct {
	field       string
	filename    string
	contentType string
	body        []byte
}

func multipartBody(t *testing.T, uploads ...upload) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for _, u := range uploads {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="`+u.field+`"; filename="`+u.filename+`"`)
		header.Set("Content-Type", u.contentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(u.body)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return buf, writer.FormDataContentType()
}

func serveCheckIn(t *testing.T, checkIn GuestCheckIn, bookingID string, uploads ...upload) *httptest.ResponseRecorder {
	t.Helper()
	h := NewCheckInHandler(checkIn, UploadLimits{
		MaxBytes:            1 << 20,
		AllowedContentTypes: []string{"image/jpeg", "application/pdf"},
	}, setupTestLogger())

	router := setupTestRouter(uuid.New())
	router.POST("/bookings/:id/check-in", h.CheckIn)

	body, contentType := multipartBody(t, uploads...)
	req := httptest.NewRequest(http.MethodPost, "/bookings/"+bookingID+"/check-in", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

var (
	passportScan = upload{field: "identity_document", filename: "passport.pdf", contentType: "application/pdf", body: []byte("%PDF-1.7 passport")}
	guestPhoto   = upload{field: "guest_photo", filename: "guest.jpg", contentType: "image/jpeg", body: []byte("\xff\xd8\xff photo")}
)

func TestCheckIn_Success(t *testing.T) {
	checkIn := new(MockCheckIn)
	booking := sampleBooking()
	booking.Status = models.BookingStatusCheckedIn

	checkIn.On("CheckInWithUploads", mock.Anything, booking.ID,
		mock.MatchedBy(func(o *storage.Object) bool {
			b, _ := io.ReadAll(o.Body)
			return o.Filename == "passport.pdf" && o.ContentType == "application/pdf" && string(b) == "%PDF-1.7 passport"
		}),
		mock.MatchedBy(func(o *storage.Object) bool { return o.Filename == "guest.jpg" }),
		mock.Anything,
	).Return(booking, nil)

	w := serveCheckIn(t, checkIn, booking.ID.String(), passportScan, guestPhoto)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"checked_in"`)
	checkIn.AssertExpectations(t)
}

func TestCheckIn_MissingPhoto(t *testing.T) {
	checkIn := new(MockCheckIn)

	w := serveCheckIn(t, checkIn, uuid.NewString(), passportScan)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w).Message, "guest_photo")
	checkIn.AssertNotCalled(t, "CheckInWithUploads", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckIn_RejectsUploads(t *testing.T) {
	tests := []struct {
		name  string
		photo upload
	}{
		{"unsupported type", upload{field: "guest_photo", filename: "guest.gif", contentType: "image/gif", body: []byte("GIF89a")}},
		{"empty file", upload{field: "guest_photo", filename: "guest.jpg", contentType: "image/jpeg"}},
		{"too large", upload{field: "guest_photo", filename: "guest.jpg", contentType: "image/jpeg", body: bytes.Repeat([]byte("x"), 1<<20+1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkIn := new(MockCheckIn)

			w := serveCheckIn(t, checkIn, uuid.NewString(), passportScan, tt.photo)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "VALIDATION_FAILED", decodeError(t, w).Code)
		})
	}
}

func TestCheckIn_InvalidState(t *testing.T) {
	checkIn := new(MockCheckIn)
	id := uuid.New()
	checkIn.On("CheckInWithUploads", mock.Anything, id, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &models.InvalidStateError{BookingID: id, Current: models.BookingStatusCancelled, Operation: "check in"})

	w := serveCheckIn(t, checkIn, id.String(), passportScan, guestPhoto)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_STATE", decodeError(t, w).Code)
}
