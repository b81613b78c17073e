package component

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/bindkit/pkg/dom"
	"github.com/vango-dev/bindkit/pkg/errors"
)

func TestRegisterValidatesName(t *testing.T) {
	tests := []struct {
		name     string
		wantCode string
	}{
		{name: "user-card"},
		{name: "User-Card"},
		{name: "usercard", wantCode: errors.CodeInvalidComponentName},
		{name: "", wantCode: errors.CodeInvalidComponentName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry().Register(Descriptor{Name: tt.name})
			if got := errors.CodeOf(err); got != tt.wantCode {
				t.Errorf("CodeOf(Register(%q)) = %q, want %q", tt.name, got, tt.wantCode)
			}
		})
	}
}

func TestRegistryIsCaseInsensitive(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Descriptor{Name: "User-Card", Template: "<b>hi</b>"}); err != nil {
		t.Fatal(err)
	}
	if !r.IsRegistered("USER-CARD") {
		t.Error("IsRegistered(USER-CARD) = false")
	}
	if diff := cmp.Diff([]string{"user-card"}, r.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}

	def, err := r.Load("user-card")
	if err != nil {
		t.Fatal(err)
	}
	a, b := def.Template(), def.Template()
	if len(a) != 1 || a[0] == b[0] {
		t.Fatalf("Template() should return fresh copies, got %v and %v", a, b)
	}
	if got := dom.Render(a[0]); got != "<b>hi</b>" {
		t.Errorf("Render(template) = %q", got)
	}
}

func TestLoadUnknown(t *testing.T) {
	_, err := NewRegistry().Load("no-such")
	if got := errors.CodeOf(err); got != errors.CodeComponentNotFound {
		t.Errorf("CodeOf(err) = %q, want %q", got, errors.CodeComponentNotFound)
	}
}

func TestInitialize(t *testing.T) {
	boom := stderrors.New("boom")
	tests := []struct {
		name     string
		def      *Definition
		override any
		want     any
		wantCode string
	}{
		{
			name: "fixed view-model",
			def:  &Definition{Name: "a-b", ViewModel: "fixed"},
			want: "fixed",
		},
		{
			name: "factory receives params",
			def: &Definition{Name: "a-b", Factory: func(p map[string]any) (any, error) {
				return p["title"], nil
			}},
			want: "hello",
		},
		{
			name:     "override wins",
			def:      &Definition{Name: "a-b", ViewModel: "fixed"},
			override: "vm",
			want:     "vm",
		},
		{
			name: "factory error",
			def: &Definition{Name: "a-b", Factory: func(map[string]any) (any, error) {
				return nil, boom
			}},
			wantCode: errors.CodeConstructor,
		},
		{
			name: "factory panic",
			def: &Definition{Name: "a-b", Factory: func(map[string]any) (any, error) {
				panic("bad")
			}},
			wantCode: errors.CodeConstructor,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Initialize(tt.def, map[string]any{"title": "hello"}, tt.override)
			if code := errors.CodeOf(err); code != tt.wantCode {
				t.Fatalf("CodeOf(err) = %q, want %q (err: %v)", code, tt.wantCode, err)
			}
			if got != tt.want {
				t.Errorf("Initialize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInitializeWrapsFactoryError(t *testing.T) {
	boom := stderrors.New("boom")
	def := &Definition{Name: "a-b", Factory: func(map[string]any) (any, error) { return nil, boom }}
	_, err := Initialize(def, nil, nil)
	if !stderrors.Is(err, boom) {
		t.Errorf("errors.Is(err, boom) = false, err = %v", err)
	}
}

func TestSetTemplateKeepsFactory(t *testing.T) {
	r := NewRegistry()
	factory := func(map[string]any) (any, error) { return 42, nil }
	if err := r.Register(Descriptor{Name: "my-thing", Factory: factory}); err != nil {
		t.Fatal(err)
	}
	if err := r.SetTemplate("MY-THING", "<i>x</i>"); err != nil {
		t.Fatal(err)
	}
	def, _ := r.Load("my-thing")
	if def.Factory == nil {
		t.Fatal("SetTemplate dropped the factory")
	}
	if got := dom.Render(def.Template()[0]); got != "<i>x</i>" {
		t.Errorf("template = %q", got)
	}
}

func TestPreloadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"user-card.html": {Data: []byte("<div>card</div>")},
		"nav-bar.html":   {Data: []byte("<nav></nav>")},
		"readme.md":      {Data: []byte("ignored")},
		"sub/inner.html": {Data: []byte("ignored")},
	}
	r := NewRegistry()
	if err := Preload(context.Background(), r, FSLoader{FS: fsys}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"nav-bar", "user-card"}, r.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}

	err := Preload(context.Background(), r, FSLoader{FS: fsys}, "missing-one")
	if !stderrors.Is(err, fs.ErrNotExist) {
		t.Errorf("Preload(missing) = %v, want not-exist", err)
	}
}

func TestPreloadInline(t *testing.T) {
	r := NewRegistry()
	loader := Inline{"x-a": "<p>a</p>", "x-b": "<p>b</p>"}
	if err := Preload(context.Background(), r, loader, "x-a"); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"x-a"}, r.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
}

type fakeS3 struct {
	objects map[string]string
	pages   [][]string
	gets    []string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(in.Key)
	f.gets = append(f.gets, key)
	body, ok := f.objects[key]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String(key)}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte(body)))}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	page := 0
	if in.ContinuationToken != nil {
		page = len(aws.ToString(in.ContinuationToken))
	}
	out := &s3.ListObjectsV2Output{}
	for _, key := range f.pages[page] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
	}
	if page+1 < len(f.pages) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(strings.Repeat("x", page+1))
	}
	return out, nil
}

func TestS3Loader(t *testing.T) {
	client := &fakeS3{
		objects: map[string]string{
			"views/user-card.html": "<div>card</div>",
			"views/nav-bar.html":   "<nav></nav>",
		},
		pages: [][]string{
			{"views/user-card.html", "views/notes.txt"},
			{"views/nested/deep.html", "views/nav-bar.html"},
		},
	}
	loader := S3Loader{Client: client, Bucket: "site", Prefix: "views/"}

	names, err := loader.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"user-card", "nav-bar"}, names); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}

	r := NewRegistry()
	if err := Preload(context.Background(), r, loader); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"views/user-card.html", "views/nav-bar.html"}, client.gets); diff != "" {
		t.Errorf("GetObject keys mismatch (-want +got):\n%s", diff)
	}
	def, err := r.Load("nav-bar")
	if err != nil {
		t.Fatal(err)
	}
	if got := dom.Render(def.Template()[0]); got != "<nav></nav>" {
		t.Errorf("template = %q", got)
	}

	if _, err := loader.Load(context.Background(), "gone"); err == nil {
		t.Error("Load(gone) should fail")
	}
}
