package clstorage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"vitrine/internal/apperrors"
	"vitrine/internal/models/climages"
	"vitrine/internal/observer"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

const (
	MaxImageSize = 10 << 20
	MaxVideoSize = 50 << 20
)

// Storage persiste un fichier et retourne son URL publique
type Storage interface {
	Save(ctx context.Context, name, contentType string, data []byte) (string, error)
	Close() error
}

// Local écrit dans un dossier servi sous /static/uploads
type Local struct {
	dir       string
	urlPrefix string
}

func NewLocal(dir, urlPrefix string) *Local {
	return &Local{dir: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}
}

func (l *Local) Save(_ context.Context, name, _ string, data []byte) (string, error) {
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return "", fmt.Errorf("erreur création dossier: %w", err)
	}
	if err := os.WriteFile(filepath.Join(l.dir, name), data, 0644); err != nil {
		return "", fmt.Errorf("erreur sauvegarde fichier: %w", err)
	}
	return l.urlPrefix + "/" + name, nil
}

func (l *Local) Close() error {
	return nil
}

// GCS écrit dans un bucket Google Cloud Storage
type GCS struct {
	client *storage.Client
	bucket string
}

// NewGCS credentials vide: identifiants par défaut de l'environnement
func NewGCS(ctx context.Context, bucket, credentials string) (*GCS, error) {
	var opts []option.ClientOption
	if credentials != "" {
		opts = append(opts, option.WithCredentialsFile(credentials))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}
	return &GCS{client: client, bucket: bucket}, nil
}

func (g *GCS) Save(ctx context.Context, name, contentType string, data []byte) (string, error) {
	writer := g.client.Bucket(g.bucket).Object(name).NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = "public, max-age=31536000"

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		writer.Close()
		return "", fmt.Errorf("failed to write GCS object %s: %w", name, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer for %s: %w", name, err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, name), nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}

// Upload fichier accepté et enregistré
type Upload struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Type     string `json:"type"`
}

var videoTypes = map[string]string{
	"video/mp4":       ".mp4",
	"video/webm":      ".webm",
	"video/quicktime": ".mov",
}

var videoExtensions = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
}

// Uploader applique les règles d'envoi puis délègue au stockage
type Uploader struct {
	store    Storage
	maxWidth int
	now      func() time.Time
}

func NewUploader(store Storage, maxWidth int) *Uploader {
	return &Uploader{store: store, maxWidth: maxWidth, now: time.Now}
}

// FileName <unix>_<8 caractères>.<ext>
func (u *Uploader) FileName(ext string) string {
	return fmt.Sprintf("%d_%s%s", u.now().Unix(), strings.ReplaceAll(uuid.NewString(), "-", "")[:8], ext)
}

// Store traite une image (redimensionnée) ou une vidéo (telle quelle)
func (u *Uploader) Store(ctx context.Context, originalName string, data []byte) (*Upload, error) {
	contentType := http.DetectContentType(data)

	if strings.HasPrefix(contentType, "image/") {
		if len(data) > MaxImageSize {
			return nil, apperrors.NewValidation("image trop grande (max 10MB)")
		}
		processed, err := climages.Process(data, u.maxWidth)
		if err != nil {
			return nil, apperrors.NewValidation("%s", err.Error())
		}
		return u.save(ctx, "image", processed.Ext, processed.ContentType, processed.Data)
	}

	ext, videoType, ok := detectVideo(contentType, originalName)
	if !ok {
		return nil, apperrors.NewValidation("le fichier doit être une image ou une vidéo")
	}
	if len(data) > MaxVideoSize {
		return nil, apperrors.NewValidation("vidéo trop grande (max 50MB)")
	}
	return u.save(ctx, "video", ext, videoType, data)
}

func (u *Uploader) save(ctx context.Context, kind, ext, contentType string, data []byte) (*Upload, error) {
	name := u.FileName(ext)
	url, err := u.store.Save(ctx, name, contentType, data)
	if err != nil {
		return nil, err
	}
	observer.UploadsTotal.WithLabelValues(kind).Inc()
	return &Upload{URL: url, Filename: name, Size: int64(len(data)), Type: kind}, nil
}

// detectVideo le reniflage ne reconnaît pas tous les conteneurs quicktime,
// l'extension d'origine sert alors de repli
func detectVideo(contentType, originalName string) (string, string, bool) {
	if ext, ok := videoTypes[contentType]; ok {
		return ext, contentType, true
	}
	if contentType != "application/octet-stream" {
		return "", "", false
	}
	ext := strings.ToLower(filepath.Ext(originalName))
	if videoType, ok := videoExtensions[ext]; ok {
		return videoTypes[videoType], videoType, true
	}
	return "", "", false
}
