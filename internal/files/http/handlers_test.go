package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/codecove/codecove-backend/internal/auth"
	"github.com/codecove/codecove-backend/internal/files/domain"
	"github.com/codecove/codecove-backend/internal/files/service"
	"github.com/codecove/codecove-backend/internal/storage/blob"
)

type memRepo struct {
	files  map[string]*domain.File
	owners map[string]string
}

func newMemRepo() *memRepo {
	return &memRepo{files: map[string]*domain.File{}, owners: map[string]string{}}
}

func (r *memRepo) Create(_ context.Context, projectID, fileName, fileURL string) (*domain.File, error) {
	f := &domain.File{ID: "f-1", ProjectID: projectID, FileName: fileName, FileURL: fileURL}
	r.files[f.ID] = f
	return f, nil
}

func (r *memRepo) Get(_ context.Context, id string) (*domain.File, error) {
	f, ok := r.files[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *memRepo) ListByOwner(_ context.Context, ownerID string) ([]domain.File, error) {
	var out []domain.File
	for _, f := range r.files {
		if r.owners[f.ProjectID] == ownerID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *memRepo) ProjectOwner(_ context.Context, projectID string) (string, error) {
	owner, ok := r.owners[projectID]
	if !ok {
		return "", domain.ErrProjectNotFound
	}
	return owner, nil
}

func (r *memRepo) Update(_ context.Context, id string, fileName, fileURL *string) (*domain.File, error) {
	f, ok := r.files[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if fileName != nil {
		f.FileName = *fileName
	}
	if fileURL != nil {
		f.FileURL = *fileURL
	}
	cp := *f
	return &cp, nil
}

func (r *memRepo) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := r.files[id]; !ok {
		return false, nil
	}
	delete(r.files, id)
	return true, nil
}

type memBlobs struct {
	objects map[string]*blob.Content
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: map[string]*blob.Content{}}
}

func (b *memBlobs) Upload(_ context.Context, data []byte, contentType, scope, filename string) (string, error) {
	url := "https://blobs/uploads/" + scope + "/" + filename
	b.objects[url] = &blob.Content{Content: string(data), Encoding: "utf-8"}
	return url, nil
}

func (b *memBlobs) FetchContent(_ context.Context, url string) (*blob.Content, error) {
	c, ok := b.objects[url]
	if !ok {
		return nil, blob.ErrNotFound
	}
	return c, nil
}

func (b *memBlobs) Replace(ctx context.Context, oldURL string, data []byte, contentType, filename string) (string, error) {
	url, err := b.Upload(ctx, data, contentType, "replaced", filename)
	if err != nil {
		return "", err
	}
	delete(b.objects, oldURL)
	return url, nil
}

func (b *memBlobs) Delete(_ context.Context, url string) error {
	delete(b.objects, url)
	return nil
}

func (b *memBlobs) List(context.Context, string) ([]blob.ObjectInfo, error) {
	return nil, nil
}

func (b *memBlobs) DeleteKey(context.Context, string) error {
	return nil
}

func newFilesRouter(repo *memRepo, blobs *memBlobs, caller string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if caller != "" {
			c.Set(auth.CtxSubject, caller)
		}
		c.Next()
	})
	svc := service.New(repo, blobs, nil, zap.NewNop())
	New(svc, zap.NewNop()).Register(r.Group("/files"))
	return r
}

func multipartBody(t *testing.T, fields map[string]string, fileField, filename, content string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestCreateFile(t *testing.T) {
	repo := newMemRepo()
	repo.owners["p-1"] = "auth0|alice"
	blobs := newMemBlobs()
	r := newFilesRouter(repo, blobs, "auth0|alice")

	body, contentType := multipartBody(t, map[string]string{"project_id": "p-1"}, "file", "main.go", "package main")
	req := httptest.NewRequest("POST", "/files", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var f domain.File
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &f))
	assert.Equal(t, "main.go", f.FileName)
	assert.Contains(t, blobs.objects, f.FileURL)
}

func TestCreateFile_MissingProjectID(t *testing.T) {
	r := newFilesRouter(newMemRepo(), newMemBlobs(), "auth0|alice")

	body, contentType := multipartBody(t, nil, "file", "main.go", "package main")
	req := httptest.NewRequest("POST", "/files", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateFile_MissingFilePart(t *testing.T) {
	repo := newMemRepo()
	repo.owners["p-1"] = "auth0|alice"
	r := newFilesRouter(repo, newMemBlobs(), "auth0|alice")

	body, contentType := multipartBody(t, map[string]string{"project_id": "p-1"}, "", "", "")
	req := httptest.NewRequest("POST", "/files", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateFile_UnknownProject(t *testing.T) {
	r := newFilesRouter(newMemRepo(), newMemBlobs(), "auth0|alice")

	body, contentType := multipartBody(t, map[string]string{"project_id": "p-missing"}, "file", "main.go", "x")
	req := httptest.NewRequest("POST", "/files", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateFile_NonOwnerForbidden(t *testing.T) {
	repo := newMemRepo()
	repo.owners["p-1"] = "auth0|alice"
	r := newFilesRouter(repo, newMemBlobs(), "auth0|bob")

	body, contentType := multipartBody(t, map[string]string{"project_id": "p-1"}, "file", "main.go", "x")
	req := httptest.NewRequest("POST", "/files", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRetrieveFile_IncludesContent(t *testing.T) {
	repo := newMemRepo()
	repo.owners["p-1"] = "auth0|alice"
	blobs := newMemBlobs()
	blobs.objects["https://blobs/u/f"] = &blob.Content{Content: "package main", Encoding: "utf-8"}
	repo.files["f-1"] = &domain.File{ID: "f-1", ProjectID: "p-1", FileName: "main.go", FileURL: "https://blobs/u/f"}

	r := newFilesRouter(repo, blobs, "auth0|bob")
	req := httptest.NewRequest("GET", "/files/f-1", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		FileName string `json:"file_name"`
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
		IsBase64 bool   `json:"is_base64"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "main.go", resp.FileName)
	assert.Equal(t, "package main", resp.Content)
	assert.Equal(t, "utf-8", resp.Encoding)
	assert.False(t, resp.IsBase64)
}

func TestRetrieveFile_RowWithoutBlob(t *testing.T) {
	repo := newMemRepo()
	repo.files["f-1"] = &domain.File{ID: "f-1", ProjectID: "p-1", FileURL: "https://blobs/u/gone"}

	r := newFilesRouter(repo, newMemBlobs(), "auth0|alice")
	req := httptest.NewRequest("GET", "/files/f-1", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "storage")
}

func TestUpdateFile_NothingToUpdate(t *testing.T) {
	repo := newMemRepo()
	repo.owners["p-1"] = "auth0|alice"
	repo.files["f-1"] = &domain.File{ID: "f-1", ProjectID: "p-1", FileName: "a.go"}

	r := newFilesRouter(repo, newMemBlobs(), "auth0|alice")
	body, contentType := multipartBody(t, nil, "", "", "")
	req := httptest.NewRequest("PATCH", "/files/f-1", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateFile_Rename(t *testing.T) {
	repo := newMemRepo()
	repo.owners["p-1"] = "auth0|alice"
	repo.files["f-1"] = &domain.File{ID: "f-1", ProjectID: "p-1", FileName: "a.go", FileURL: "https://blobs/u/f"}

	r := newFilesRouter(repo, newMemBlobs(), "auth0|alice")
	body, contentType := multipartBody(t, map[string]string{"file_name": "b.go"}, "", "", "")
	req := httptest.NewRequest("PATCH", "/files/f-1", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var f domain.File
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &f))
	assert.Equal(t, "b.go", f.FileName)
	assert.Equal(t, "https://blobs/u/f", f.FileURL)
}

func TestUpdateFile_ReplaceContent(t *testing.T) {
	repo := newMemRepo()
	repo.owners["p-1"] = "auth0|alice"
	blobs := newMemBlobs()
	blobs.objects["https://blobs/u/old"] = &blob.Content{Content: "old"}
	repo.files["f-1"] = &domain.File{ID: "f-1", ProjectID: "p-1", FileName: "a.go", FileURL: "https://blobs/u/old"}

	r := newFilesRouter(repo, blobs, "auth0|alice")
	body, contentType := multipartBody(t, nil, "file", "a2.go", "new bytes")
	req := httptest.NewRequest("PUT", "/files/f-1", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var f domain.File
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &f))
	assert.NotEqual(t, "https://blobs/u/old", f.FileURL)
	assert.NotContains(t, blobs.objects, "https://blobs/u/old", "old blob is deleted after replacement")
	assert.Contains(t, blobs.objects, f.FileURL)
}

func TestDeleteFile(t *testing.T) {
	repo := newMemRepo()
	repo.owners["p-1"] = "auth0|alice"
	blobs := newMemBlobs()
	blobs.objects["https://blobs/u/f"] = &blob.Content{Content: "x"}
	repo.files["f-1"] = &domain.File{ID: "f-1", ProjectID: "p-1", FileURL: "https://blobs/u/f"}

	r := newFilesRouter(repo, blobs, "auth0|alice")
	req := httptest.NewRequest("DELETE", "/files/f-1", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.NotContains(t, repo.files, "f-1")
	assert.NotContains(t, blobs.objects, "https://blobs/u/f")
}

func TestDeleteFile_NotFound(t *testing.T) {
	r := newFilesRouter(newMemRepo(), newMemBlobs(), "auth0|alice")
	req := httptest.NewRequest("DELETE", "/files/missing", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListFiles_ScopedToCaller(t *testing.T) {
	repo := newMemRepo()
	repo.owners["p-1"] = "auth0|alice"
	repo.owners["p-2"] = "auth0|bob"
	repo.files["f-1"] = &domain.File{ID: "f-1", ProjectID: "p-1"}
	repo.files["f-2"] = &domain.File{ID: "f-2", ProjectID: "p-2"}

	r := newFilesRouter(repo, newMemBlobs(), "auth0|alice")
	req := httptest.NewRequest("GET", "/files", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Files []domain.File `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Files, 1)
	assert.Equal(t, "f-1", resp.Files[0].ID)
}
