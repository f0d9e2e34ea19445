package pubgallery

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/eringen/pubgallery/discovery"
	"github.com/eringen/pubgallery/views"
)

const (
	maxImageWidth = 1600
	thumbWidth    = 480
	jpegQuality   = 82
	maxUploadSize = 10 << 20 // 10MB
	thumbSuffix   = "-sm"
)

var reAssetName = regexp.MustCompile(`^(\d+)\.(jpg|jpeg|png|webp)$`)

// errNoLocalAssets is returned for uploads when assets live on a remote origin.
var errNoLocalAssets = errors.New("uploads need a local assets_dir")

// processed is one encoded variant of an upload.
type processed struct {
	data          []byte
	width, height int
}

// processImage decodes src and encodes the full variant (at most
// maxImageWidth wide) and its low-quality thumbnail as JPEG.
func processImage(src io.Reader) (full, thumb processed, err error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return processed{}, processed{}, fmt.Errorf("decode image: %w", err)
	}
	full, err = encodeJPEG(fitWidth(img, maxImageWidth))
	if err != nil {
		return processed{}, processed{}, err
	}
	thumb, err = encodeJPEG(fitWidth(img, thumbWidth))
	if err != nil {
		return processed{}, processed{}, err
	}
	return full, thumb, nil
}

// fitWidth scales img down to at most w pixels wide, keeping the aspect ratio.
func fitWidth(img image.Image, w int) image.Image {
	b := img.Bounds()
	if b.Dx() <= w {
		return img
	}
	h := max(1, b.Dy()*w/b.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image) (processed, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return processed{}, fmt.Errorf("encode jpeg: %w", err)
	}
	b := img.Bounds()
	return processed{data: buf.Bytes(), width: b.Dx(), height: b.Dy()}, nil
}

// folderLocks serializes writers per gallery folder.
type folderLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

// lock blocks until folder is free and returns its unlock func.
func (l *folderLocks) lock(folder string) func() {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[string]*sync.Mutex)
	}
	fm, ok := l.m[folder]
	if !ok {
		fm = &sync.Mutex{}
		l.m[folder] = fm
	}
	l.mu.Unlock()
	fm.Lock()
	return fm.Unlock
}

// nextIndex returns the lowest index of folder with no asset under any
// configured extension, so a strict scan keeps finding every upload.
func (a *App) nextIndex(folder string) int {
	dir := filepath.Join(a.Config.AssetsDir, folder)
	exts := a.Discoverer.Extensions
	if len(exts) == 0 {
		exts = discovery.DefaultExtensions
	}
	for i := 1; ; i++ {
		taken := false
		for _, ext := range exts {
			if _, err := os.Stat(filepath.Join(dir, strconv.Itoa(i)+ext)); err == nil {
				taken = true
				break
			}
		}
		if !taken {
			return i
		}
	}
}

func (a *App) handleUpload(c echo.Context) error {
	if a.Config.AssetsBaseURL != "" {
		return c.String(http.StatusBadRequest, errNoLocalAssets.Error())
	}
	folder := Slugify(c.FormValue("folder"))
	if !validFolder(folder) {
		return c.String(http.StatusBadRequest, "Invalid folder name")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return c.String(http.StatusBadRequest, "No image file provided")
	}
	if file.Size > maxUploadSize {
		return c.String(http.StatusBadRequest, "File too large (max 10MB)")
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	full, thumb, err := processImage(src)
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid image: "+err.Error())
	}

	dir := filepath.Join(a.Config.AssetsDir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create folder %s: %w", folder, err)
	}
	// Index allocation and the writes below form one step per folder.
	defer a.folderLocks.lock(folder)()
	n := a.nextIndex(folder)
	u := Upload{
		Folder:       folder,
		Filename:     strconv.Itoa(n) + ".jpg",
		Thumbnail:    strconv.Itoa(n) + thumbSuffix + ".jpg",
		OriginalName: file.Filename,
		Width:        full.width,
		Height:       full.height,
		Size:         len(full.data),
		UploadedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	// The thumbnail goes first so a concurrent scan never sees index n
	// without its low variant.
	if err := os.WriteFile(filepath.Join(dir, u.Thumbnail), thumb.data, 0o644); err != nil {
		return fmt.Errorf("write thumbnail: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, u.Filename), full.data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	if err := a.Store.SaveUpload(u); err != nil {
		return err
	}
	if err := a.Cache.Invalidate(folder); err != nil {
		c.Logger().Warnf("invalidate %s: %v", folder, err)
	}
	return redirectWithMessage(c, fmt.Sprintf("Uploaded %s/%s", folder, u.Filename))
}

func (a *App) handleImageDelete(c echo.Context) error {
	folder := c.Param("folder")
	filename := c.Param("filename")
	m := reAssetName.FindStringSubmatch(filename)
	if !validFolder(folder) || m == nil {
		return c.String(http.StatusBadRequest, "Invalid image path")
	}

	defer a.folderLocks.lock(folder)()
	dir := filepath.Join(a.Config.AssetsDir, folder)
	_ = os.Remove(filepath.Join(dir, filename)) // ignore error if file already gone
	thumb := m[1] + thumbSuffix + ".jpg"
	if u, err := a.Store.GetUpload(folder, filename); err == nil && u.Thumbnail != "" {
		thumb = u.Thumbnail
	}
	_ = os.Remove(filepath.Join(dir, thumb))

	if err := a.Store.DeleteUpload(folder, filename); err != nil {
		return err
	}
	if err := a.Cache.Invalidate(folder); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *App) viewUpload(u Upload) views.Upload {
	base := assetRoot + "/" + u.Folder + "/"
	thumb := u.Thumbnail
	if thumb == "" {
		thumb = u.Filename
	}
	return views.Upload{
		Folder:       u.Folder,
		Filename:     u.Filename,
		URL:          a.assetURL(discovery.AssetRef(base + u.Filename)),
		ThumbURL:     a.assetURL(discovery.AssetRef(base + thumb)),
		OriginalName: u.OriginalName,
		Width:        u.Width,
		Height:       u.Height,
		UploadedAt:   u.UploadedAt,
	}
}
