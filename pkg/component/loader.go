package component

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DefaultExt is the template file extension used by FSLoader and S3Loader.
const DefaultExt = ".html"

// Loader fetches component templates by name.
type Loader interface {
	Load(ctx context.Context, name string) (string, error)
}

// Lister is implemented by loaders that can enumerate their templates.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// Inline serves templates from memory.
type Inline map[string]string

// Load implements Loader.
func (m Inline) Load(_ context.Context, name string) (string, error) {
	markup, ok := m[name]
	if !ok {
		return "", fmt.Errorf("template %q: %w", name, fs.ErrNotExist)
	}
	return markup, nil
}

// List implements Lister.
func (m Inline) List(context.Context) ([]string, error) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// FSLoader reads <name><Ext> files from FS.
type FSLoader struct {
	FS  fs.FS
	Ext string
}

func (l FSLoader) ext() string {
	if l.Ext == "" {
		return DefaultExt
	}
	return l.Ext
}

// Load implements Loader.
func (l FSLoader) Load(_ context.Context, name string) (string, error) {
	data, err := fs.ReadFile(l.FS, name+l.ext())
	if err != nil {
		return "", fmt.Errorf("template %q: %w", name, err)
	}
	return string(data), nil
}

// List implements Lister. Only files at the root of FS are listed.
func (l FSLoader) List(context.Context) ([]string, error) {
	entries, err := fs.ReadDir(l.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != l.ext() {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), l.ext()))
	}
	return names, nil
}

// S3API is the subset of the S3 client used by S3Loader.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	s3.ListObjectsV2APIClient
}

// S3Loader reads <Prefix><name><Ext> objects from an S3 bucket.
type S3Loader struct {
	Client S3API
	Bucket string
	Prefix string
	Ext    string
}

func (l S3Loader) ext() string {
	if l.Ext == "" {
		return DefaultExt
	}
	return l.Ext
}

// Load implements Loader.
func (l S3Loader) Load(ctx context.Context, name string) (string, error) {
	key := l.Prefix + name + l.ext()
	out, err := l.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("get s3://%s/%s: %w", l.Bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", fmt.Errorf("read s3://%s/%s: %w", l.Bucket, key, err)
	}
	return string(data), nil
}

// List implements Lister.
func (l S3Loader) List(ctx context.Context) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(l.Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(l.Bucket),
		Prefix: aws.String(l.Prefix),
	})

	var names []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", l.Bucket, l.Prefix, err)
		}
		for _, obj := range page.Contents {
			key := strings.TrimPrefix(aws.ToString(obj.Key), l.Prefix)
			if strings.Contains(key, "/") || !strings.HasSuffix(key, l.ext()) {
				continue
			}
			names = append(names, strings.TrimSuffix(key, l.ext()))
		}
	}
	return names, nil
}

// Preload loads the templates for names into r. With no names, every
// template the loader lists is loaded; the loader must then implement
// Lister.
func Preload(ctx context.Context, r *Registry, loader Loader, names ...string) error {
	if len(names) == 0 {
		lister, ok := loader.(Lister)
		if !ok {
			return fmt.Errorf("preload: %T cannot list templates", loader)
		}
		var err error
		if names, err = lister.List(ctx); err != nil {
			return err
		}
	}

	for _, name := range names {
		markup, err := loader.Load(ctx, name)
		if err != nil {
			return err
		}
		if err := r.SetTemplate(name, markup); err != nil {
			return err
		}
	}
	return nil
}
