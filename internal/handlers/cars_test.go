package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"carspace-backend/internal/dto"
	"carspace-backend/internal/middleware"
	"carspace-backend/internal/models"
	"carspace-backend/internal/store"
)

// fakeUploader records uploads and can be told to fail
type fakeUploader struct {
	fail    bool
	uploads []string
}

func (f *fakeUploader) Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	if f.fail {
		return "", errors.New("storage unavailable")
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	url := "https://img.test/" + filename
	f.uploads = append(f.uploads, url)
	return url, nil
}

type carsFixture struct {
	handler  *CarsHandler
	cars     *store.MemoryCarStore
	uploader *fakeUploader
}

func newCarsFixture() *carsFixture {
	cars := store.NewMemoryCarStore()
	uploader := &fakeUploader{}
	return &carsFixture{
		handler:  NewCarsHandler(cars, uploader, testConfig()),
		cars:     cars,
		uploader: uploader,
	}
}

func (f *carsFixture) token(t *testing.T, userID uuid.UUID, username string) string {
	t.Helper()
	token, err := middleware.GenerateToken(userID, username, &testConfig().JWT)
	require.NoError(t, err)
	return token
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string, imageNames ...string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, name := range imageNames {
		fw, err := mw.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("fake image bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func decodeCarResponse(t *testing.T, w *httptest.ResponseRecorder) dto.CarResponse {
	t.Helper()
	var resp dto.CarResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestCarLifecycle(t *testing.T) {
	t.Parallel()

	f := newCarsFixture()
	alice := uuid.New()
	bob := uuid.New()
	aliceToken := f.token(t, alice, "alice")
	bobToken := f.token(t, bob, "bob")

	// Alice creates a car
	r := multipartRequest(t, http.MethodPost, "/api/cars", map[string]string{
		"title":       "Civic",
		"description": "Reliable daily driver",
		"tags":        "sedan,compact",
	}, "front.jpg", "rear.jpg")
	r.Header.Set("Authorization", "Bearer "+aliceToken)
	w := httptest.NewRecorder()
	f.handler.Cars(w, r)

	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeCarResponse(t, w)
	require.Equal(t, alice.String(), created.UserID)
	require.Equal(t, "alice", created.Username)
	require.Equal(t, []string{"sedan", "compact"}, created.Tags)
	require.Equal(t, []string{"https://img.test/front.jpg", "https://img.test/rear.jpg"}, created.Images)

	carPath := "/api/cars/" + created.ID

	// Public policy: bob can read alice's car, with or without a token
	r = httptest.NewRequest(http.MethodGet, carPath, nil)
	r.Header.Set("Authorization", "Bearer "+bobToken)
	w = httptest.NewRecorder()
	f.handler.CarByID(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, created.ID, decodeCarResponse(t, w).ID)

	r = httptest.NewRequest(http.MethodGet, "/api/cars", nil)
	w = httptest.NewRecorder()
	f.handler.Cars(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	// Bob cannot update or delete alice's car; reported as not-found
	r = multipartRequest(t, http.MethodPatch, carPath, map[string]string{"title": "Stolen"})
	r.Header.Set("Authorization", "Bearer "+bobToken)
	w = httptest.NewRecorder()
	f.handler.CarByID(w, r)
	require.Equal(t, http.StatusNotFound, w.Code)

	r = httptest.NewRequest(http.MethodDelete, carPath, nil)
	r.Header.Set("Authorization", "Bearer "+bobToken)
	w = httptest.NewRecorder()
	f.handler.CarByID(w, r)
	require.Equal(t, http.StatusNotFound, w.Code)

	// Storage unchanged after the failed foreign mutations
	stored, err := f.cars.GetByID(context.Background(), uuid.MustParse(created.ID))
	require.NoError(t, err)
	require.Equal(t, "Civic", stored.Title)

	// Alice deletes; a second delete and a subsequent read both miss
	r = httptest.NewRequest(http.MethodDelete, carPath, nil)
	r.Header.Set("Authorization", "Bearer "+aliceToken)
	w = httptest.NewRecorder()
	f.handler.CarByID(w, r)
	require.Equal(t, http.StatusNoContent, w.Code)

	r = httptest.NewRequest(http.MethodGet, carPath, nil)
	w = httptest.NewRecorder()
	f.handler.CarByID(w, r)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateCar_Unauthorized(t *testing.T) {
	t.Parallel()

	f := newCarsFixture()
	r := multipartRequest(t, http.MethodPost, "/api/cars", map[string]string{
		"title":       "Civic",
		"description": "Reliable daily driver",
	})
	w := httptest.NewRecorder()
	f.handler.Cars(w, r)

	require.Equal(t, http.StatusUnauthorized, w.Code)

	cars, err := f.cars.ListAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, cars)
}

func TestCreateCar_Validation(t *testing.T) {
	t.Parallel()

	f := newCarsFixture()
	token := f.token(t, uuid.New(), "alice")

	r := multipartRequest(t, http.MethodPost, "/api/cars", map[string]string{
		"description": "no title",
	})
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.handler.Cars(w, r)
	require.Equal(t, http.StatusBadRequest, w.Code)

	r = multipartRequest(t, http.MethodPost, "/api/cars", map[string]string{
		"title": "no description",
	})
	r.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	f.handler.Cars(w, r)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateCar_TooManyImages(t *testing.T) {
	t.Parallel()

	f := newCarsFixture()
	token := f.token(t, uuid.New(), "alice")

	names := make([]string, models.MaxImagesPerCar+1)
	for i := range names {
		names[i] = fmt.Sprintf("img-%d.jpg", i)
	}

	r := multipartRequest(t, http.MethodPost, "/api/cars", map[string]string{
		"title":       "Civic",
		"description": "Reliable daily driver",
	}, names...)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.handler.Cars(w, r)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, f.uploader.uploads)
}

func TestCreateCar_UploadFailureAborts(t *testing.T) {
	t.Parallel()

	f := newCarsFixture()
	f.uploader.fail = true
	token := f.token(t, uuid.New(), "alice")

	r := multipartRequest(t, http.MethodPost, "/api/cars", map[string]string{
		"title":       "Civic",
		"description": "Reliable daily driver",
	}, "front.jpg")
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.handler.Cars(w, r)

	require.Equal(t, http.StatusInternalServerError, w.Code)

	// Nothing was persisted
	cars, err := f.cars.ListAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, cars)
}

func TestUpdateCar_PartialPatch(t *testing.T) {
	t.Parallel()

	f := newCarsFixture()
	alice := uuid.New()
	token := f.token(t, alice, "alice")

	r := multipartRequest(t, http.MethodPost, "/api/cars", map[string]string{
		"title":       "Civic",
		"description": "Reliable daily driver",
		"tags":        "sedan,compact",
	}, "front.jpg")
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.handler.Cars(w, r)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeCarResponse(t, w)

	// Patch only the title: description, tags, and images survive
	r = multipartRequest(t, http.MethodPatch, "/api/cars/"+created.ID, map[string]string{
		"title": "Civic 2020",
	})
	r.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	f.handler.CarByID(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	updated := decodeCarResponse(t, w)
	require.Equal(t, "Civic 2020", updated.Title)
	require.Equal(t, "Reliable daily driver", updated.Description)
	require.Equal(t, []string{"sedan", "compact"}, updated.Tags)
	require.Equal(t, created.Images, updated.Images)

	// Sending new files replaces the image set
	r = multipartRequest(t, http.MethodPatch, "/api/cars/"+created.ID, map[string]string{}, "new.jpg")
	r.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	f.handler.CarByID(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{"https://img.test/new.jpg"}, decodeCarResponse(t, w).Images)
}

func TestUpdateCar_UnknownID(t *testing.T) {
	t.Parallel()

	f := newCarsFixture()
	token := f.token(t, uuid.New(), "alice")

	r := multipartRequest(t, http.MethodPatch, "/api/cars/"+uuid.New().String(), map[string]string{
		"title": "Ghost",
	})
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.handler.CarByID(w, r)
	require.Equal(t, http.StatusNotFound, w.Code)

	// Non-uuid ids are treated as not found as well
	r = multipartRequest(t, http.MethodPatch, "/api/cars/not-an-id", map[string]string{
		"title": "Ghost",
	})
	r.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	f.handler.CarByID(w, r)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSplitTags(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{}, splitTags(""))
	require.Equal(t, []string{"sedan", "compact"}, splitTags("sedan,compact"))
	require.Equal(t, []string{"sedan", "compact"}, splitTags("sedan, compact"))
	require.Equal(t, []string{"a", "b", "a"}, splitTags("a,b,a"))
}
