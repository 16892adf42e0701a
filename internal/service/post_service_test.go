package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/maheshrc27/crosspost-api/internal/models"
	"github.com/maheshrc27/crosspost-api/internal/repository"
	"github.com/maheshrc27/crosspost-api/pkg/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}
	mp4Header = []byte{0, 0, 0, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm', 0, 0, 0, 0}
)

type fakeMediaHost struct {
	uploads []*Media
	url     string
	err     error
}

func (h *fakeMediaHost) Upload(_ context.Context, media *Media) (*models.MediaAsset, error) {
	if h.err != nil {
		return nil, h.err
	}
	h.uploads = append(h.uploads, media)
	return &models.MediaAsset{
		Host:         "fake",
		PublicID:     "asset",
		SecureURL:    h.url,
		ResourceType: media.Type,
	}, nil
}

// fakeGraph records requests and answers from a route table keyed by
// "METHOD /path".
type fakeGraph struct {
	mu       sync.Mutex
	requests []string
	forms    map[string]map[string]string
	routes   map[string]func() (int, string)
}

func newFakeGraph(routes map[string]func() (int, string)) (*fakeGraph, *httptest.Server) {
	g := &fakeGraph{routes: routes, forms: make(map[string]map[string]string)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		key := r.Method + " " + r.URL.Path

		g.mu.Lock()
		g.requests = append(g.requests, key)
		form := make(map[string]string)
		for k := range r.Form {
			form[k] = r.Form.Get(k)
		}
		g.forms[key] = form
		g.mu.Unlock()

		route, ok := g.routes[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"message":"unknown route"}}`))
			return
		}
		code, body := route()
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}))
	return g, srv
}

func (g *fakeGraph) count(key string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, r := range g.requests {
		if r == key {
			n++
		}
	}
	return n
}

func reply(code int, body string) func() (int, string) {
	return func() (int, string) { return code, body }
}

type postFixture struct {
	svc    PostService
	creds  CredentialsService
	posts  repository.SocialPostRepository
	media  *fakeMediaHost
	userID primitive.ObjectID
}

func newPostFixture(t *testing.T, graphURL string) *postFixture {
	t.Helper()
	creds := NewCredentialsService(repository.NewMemoryTenantRepository(), utils.NewTokenCipher(testCipherKey))
	posts := repository.NewMemorySocialPostRepository()
	media := &fakeMediaHost{url: "https://cdn.example.com/asset"}
	svc := NewPostService(
		creds,
		posts,
		media,
		NewInstagramService(graphURL, 3, time.Millisecond),
		NewFacebookService(graphURL),
	)
	return &postFixture{svc: svc, creds: creds, posts: posts, media: media, userID: primitive.NewObjectID()}
}

func (f *postFixture) saveBoth(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	if _, _, err := f.creds.SaveInstagram(ctx, f.userID, models.InstaCredentials{AccessToken: "ig-token", IGUserID: "ig1"}); err != nil {
		t.Fatalf("save instagram: %v", err)
	}
	if _, _, err := f.creds.SaveFacebook(ctx, f.userID, models.FacebookCredentials{PageID: "page1", FacebookAccess: "fb-token"}); err != nil {
		t.Fatalf("save facebook: %v", err)
	}
}

func encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func TestPublishImageToBothPlatforms(t *testing.T) {
	graph, srv := newFakeGraph(map[string]func() (int, string){
		"POST /ig1/media":         reply(200, `{"id":"container1"}`),
		"POST /ig1/media_publish": reply(200, `{"id":"igpost1"}`),
		"POST /page1/photos":      reply(200, `{"id":"photo1","post_id":"page1_1"}`),
	})
	defer srv.Close()

	f := newPostFixture(t, srv.URL)
	f.saveBoth(t)

	post, err := f.svc.PublishImage(context.Background(), f.userID, "hello", encode(pngHeader))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	if post.MediaType != models.MediaTypeImage || post.Asset.SecureURL != f.media.url {
		t.Fatalf("unexpected post: %+v", post)
	}
	if post.InstagramResponse["id"] != "igpost1" {
		t.Fatalf("unexpected instagram response: %v", post.InstagramResponse)
	}
	if post.FacebookResponse["id"] != "photo1" {
		t.Fatalf("unexpected facebook response: %v", post.FacebookResponse)
	}

	container := graph.forms["POST /ig1/media"]
	if container["image_url"] != f.media.url || container["caption"] != "hello" || container["access_token"] != "ig-token" {
		t.Fatalf("unexpected container form: %v", container)
	}
	if graph.forms["POST /ig1/media_publish"]["creation_id"] != "container1" {
		t.Fatalf("publish did not use creation id: %v", graph.forms["POST /ig1/media_publish"])
	}
	if graph.forms["POST /page1/photos"]["url"] != f.media.url || graph.forms["POST /page1/photos"]["access_token"] != "fb-token" {
		t.Fatalf("unexpected photo form: %v", graph.forms["POST /page1/photos"])
	}

	stored, err := f.svc.List(context.Background(), f.userID, 0)
	if err != nil || len(stored) != 1 {
		t.Fatalf("expected one stored post, got %d (%v)", len(stored), err)
	}
}

func TestPublishImageKeepsFailedContainerAndContinues(t *testing.T) {
	graph, srv := newFakeGraph(map[string]func() (int, string){
		"POST /ig1/media":    reply(400, `{"error":{"message":"Invalid image","code":9004}}`),
		"POST /page1/photos": reply(200, `{"id":"photo1"}`),
	})
	defer srv.Close()

	f := newPostFixture(t, srv.URL)
	f.saveBoth(t)

	post, err := f.svc.PublishImage(context.Background(), f.userID, "hello", encode(pngHeader))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if _, ok := post.InstagramResponse["error"]; !ok {
		t.Fatalf("expected container error to be stored, got %v", post.InstagramResponse)
	}
	if graph.count("POST /ig1/media_publish") != 0 {
		t.Fatalf("publish should not be attempted without a container id")
	}
	if post.FacebookResponse["id"] != "photo1" {
		t.Fatalf("facebook should still be attempted: %v", post.FacebookResponse)
	}
}

func TestPublishSkipsIncompletePlatforms(t *testing.T) {
	graph, srv := newFakeGraph(map[string]func() (int, string){})
	defer srv.Close()

	f := newPostFixture(t, srv.URL)
	if _, _, err := f.creds.SaveInstagram(context.Background(), f.userID, models.InstaCredentials{AccessToken: "ig-token"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	post, err := f.svc.PublishImage(context.Background(), f.userID, "", encode(pngHeader))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if post.InstagramResponse != nil || post.FacebookResponse != nil {
		t.Fatalf("expected no platform responses, got %v / %v", post.InstagramResponse, post.FacebookResponse)
	}
	if len(graph.requests) != 0 {
		t.Fatalf("expected no graph calls, got %v", graph.requests)
	}
}

func TestPublishVideoPollsUntilFinished(t *testing.T) {
	polls := 0
	graph, srv := newFakeGraph(map[string]func() (int, string){
		"POST /ig1/media": reply(200, `{"id":"container1"}`),
		"GET /container1": func() (int, string) {
			polls++
			if polls < 2 {
				return 200, `{"status_code":"IN_PROGRESS","id":"container1"}`
			}
			return 200, `{"status_code":"FINISHED","id":"container1"}`
		},
		"POST /ig1/media_publish": reply(200, `{"id":"reel1"}`),
		"POST /page1/videos":      reply(200, `{"id":"video1"}`),
	})
	defer srv.Close()

	f := newPostFixture(t, srv.URL)
	f.saveBoth(t)

	post, err := f.svc.PublishVideo(context.Background(), f.userID, "clip", encode(mp4Header))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if post.MediaType != models.MediaTypeVideo || f.media.uploads[0].Folder != VideoFolder {
		t.Fatalf("unexpected video upload: %+v", post)
	}
	if post.InstagramResponse["id"] != "reel1" || post.FacebookResponse["id"] != "video1" {
		t.Fatalf("unexpected responses: %v / %v", post.InstagramResponse, post.FacebookResponse)
	}
	if graph.forms["POST /ig1/media"]["media_type"] != "REELS" || graph.forms["POST /ig1/media"]["video_url"] != f.media.url {
		t.Fatalf("unexpected reel container form: %v", graph.forms["POST /ig1/media"])
	}
	if graph.forms["GET /container1"]["fields"] != "status_code" {
		t.Fatalf("status poll missing fields: %v", graph.forms["GET /container1"])
	}
	if graph.forms["POST /page1/videos"]["file_url"] != f.media.url || graph.forms["POST /page1/videos"]["description"] != "clip" {
		t.Fatalf("unexpected video form: %v", graph.forms["POST /page1/videos"])
	}
}

func TestPublishVideoContainerError(t *testing.T) {
	graph, srv := newFakeGraph(map[string]func() (int, string){
		"POST /ig1/media":    reply(200, `{"id":"container1"}`),
		"GET /container1":    reply(200, `{"status_code":"ERROR"}`),
		"POST /page1/videos": reply(200, `{"id":"video1"}`),
	})
	defer srv.Close()

	f := newPostFixture(t, srv.URL)
	f.saveBoth(t)

	post, err := f.svc.PublishVideo(context.Background(), f.userID, "clip", encode(mp4Header))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if post.InstagramResponse["error"] != igVideoFailed {
		t.Fatalf("unexpected instagram response: %v", post.InstagramResponse)
	}
	if graph.count("POST /ig1/media_publish") != 0 {
		t.Fatalf("failed container must not be published")
	}
}

func TestPublishVideoStopsPollingAtBound(t *testing.T) {
	graph, srv := newFakeGraph(map[string]func() (int, string){
		"POST /ig1/media": reply(200, `{"id":"container1"}`),
		"GET /container1": reply(200, `{"status_code":"IN_PROGRESS"}`),
	})
	defer srv.Close()

	f := newPostFixture(t, srv.URL)
	if _, _, err := f.creds.SaveInstagram(context.Background(), f.userID, models.InstaCredentials{AccessToken: "ig-token", IGUserID: "ig1"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	post, err := f.svc.PublishVideo(context.Background(), f.userID, "clip", encode(mp4Header))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if post.InstagramResponse["error"] != igVideoProcessing {
		t.Fatalf("unexpected instagram response: %v", post.InstagramResponse)
	}
	if n := graph.count("GET /container1"); n != 3 {
		t.Fatalf("expected 3 status polls, got %d", n)
	}
}

func TestPublishRejectsBadInput(t *testing.T) {
	f := newPostFixture(t, "http://127.0.0.1:0")
	ctx := context.Background()

	_, err := f.svc.PublishImage(ctx, f.userID, "", encode(pngHeader))
	expectCode(t, err, http.StatusNotFound, "Credentials for this user not found")

	f.saveBoth(t)

	_, err = f.svc.PublishImage(ctx, f.userID, "", "not base64!!")
	expectCode(t, err, http.StatusBadRequest, "Invalid base64 image data")

	_, err = f.svc.PublishVideo(ctx, f.userID, "", encode(pngHeader))
	expectCode(t, err, http.StatusBadRequest, "Unsupported video format")

	f.media.url = ""
	_, err = f.svc.PublishImage(ctx, f.userID, "", encode(pngHeader))
	expectCode(t, err, http.StatusInternalServerError, "Image URL not returned from media host")

	f.media.err = errors.New("quota exceeded")
	if _, err = f.svc.PublishImage(ctx, f.userID, "", encode(pngHeader)); err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected upload error, got %v", err)
	}

	posts, _ := f.posts.ListByUserID(ctx, f.userID, 0)
	if len(posts) != 0 {
		t.Fatalf("failed uploads must not be recorded, got %d", len(posts))
	}
}

func TestPlatformTransportFailureIsRecorded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	f := newPostFixture(t, srv.URL)
	f.saveBoth(t)

	post, err := f.svc.PublishImage(context.Background(), f.userID, "", encode(pngHeader))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	for name, resp := range map[string]map[string]interface{}{"instagram": post.InstagramResponse, "facebook": post.FacebookResponse} {
		if _, ok := resp["error"]; !ok {
			t.Fatalf("expected %s error to be recorded, got %v", name, resp)
		}
	}

	raw, _ := json.Marshal(post)
	if !strings.Contains(string(raw), `"cloudinary_response"`) {
		t.Fatalf("record missing media field: %s", raw)
	}
}
