package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/campusnet/campusnet/backend/go-services/pkg/apperror"
	"github.com/stretchr/testify/require"
)

func textUpload(name, body string) Upload {
	return Upload{
		Name:        name,
		Size:        int64(len(body)),
		ContentType: "text/plain",
		Open:        func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(body)), nil },
	}
}

func TestLocalStore_SaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, "http://localhost:5000/uploads/")
	require.NoError(t, err)

	urls, err := SaveAll(context.Background(), s, []Upload{textUpload("../../etc/passwd", "hello")}, Limits{MaxFiles: 5})
	require.NoError(t, err)
	require.Len(t, urls, 1)
	require.True(t, strings.HasPrefix(urls[0], "http://localhost:5000/uploads/"))
	require.True(t, strings.HasSuffix(urls[0], "-passwd"))

	name := strings.TrimPrefix(urls[0], "http://localhost:5000/uploads/")
	b, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	require.Equal(t, "hello", string(b))

	require.NoError(t, s.Delete(context.Background(), urls[0]))
	_, err = os.Stat(filepath.Join(dir, name))
	require.True(t, os.IsNotExist(err))

	// deleting twice is fine
	require.NoError(t, s.Delete(context.Background(), urls[0]))
}

func TestSaveAll_EnforcesLimits(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "http://x/")
	require.NoError(t, err)

	six := make([]Upload, 6)
	for i := range six {
		six[i] = textUpload("f.txt", "x")
	}
	_, err = SaveAll(context.Background(), s, six, Limits{MaxFiles: 5})
	require.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = SaveAll(context.Background(), s, []Upload{textUpload("big.bin", "0123456789")}, Limits{MaxFiles: 5, MaxFileBytes: 4})
	require.True(t, errors.Is(err, apperror.ErrValidation))
}

// failingStore accepts the first n saves then fails.
type failingStore struct {
	okLeft  int
	saved   []string
	deleted []string
}

func (f *failingStore) Driver() string { return "fake" }
func (f *failingStore) Save(ctx context.Context, name string, r io.Reader, size int64, ct string) (string, error) {
	if f.okLeft == 0 {
		return "", errors.New("disk full")
	}
	f.okLeft--
	u := "mem://" + name
	f.saved = append(f.saved, u)
	return u, nil
}
func (f *failingStore) Delete(ctx context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

func TestSaveAll_RemovesEarlierFilesOnFailure(t *testing.T) {
	fs := &failingStore{okLeft: 2}
	_, err := SaveAll(context.Background(), fs, []Upload{textUpload("a", "1"), textUpload("b", "2"), textUpload("c", "3")}, Limits{MaxFiles: 5})
	require.True(t, errors.Is(err, apperror.ErrInternal))
	require.Len(t, fs.saved, 2)
	require.ElementsMatch(t, fs.saved, fs.deleted)
}

func TestObjectName(t *testing.T) {
	a := ObjectName("My CV (final).pdf")
	b := ObjectName("My CV (final).pdf")
	require.NotEqual(t, a, b)
	require.True(t, strings.HasSuffix(a, "My_CV_final_.pdf"))
	require.NotContains(t, ObjectName(`C:\docs\x.pdf`), `\`)
	require.True(t, strings.HasSuffix(ObjectName("..."), "-file"))
}

func TestParseCloudinaryURL(t *testing.T) {
	rt, id := parseCloudinaryURL("https://res.cloudinary.com/demo/image/upload/v1712/campusnet/123-abc-photo.jpg")
	require.Equal(t, "image", rt)
	require.Equal(t, "campusnet/123-abc-photo", id)

	rt, id = parseCloudinaryURL("https://res.cloudinary.com/demo/raw/upload/campusnet/cv.pdf")
	require.Equal(t, "raw", rt)
	require.Equal(t, "campusnet/cv", id)

	_, id = parseCloudinaryURL("https://example.com/no-upload-segment.png")
	require.Empty(t, id)
}
