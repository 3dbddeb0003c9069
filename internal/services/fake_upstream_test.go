package services

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dimitrije/pod-console/internal/models"
	"github.com/dimitrije/pod-console/internal/upstream"
)

type fakePod struct {
	ID                string  `json:"_id"`
	Name              string  `json:"name"`
	Type              string  `json:"type"`
	AssociatedEmail   string  `json:"associatedEmail"`
	ParentPodID       *string `json:"parentPodId"`
	TotalLicenses     int     `json:"totalLicenses"`
	AssignedLicenses  int     `json:"assignedLicenses"`
	AvailableLicenses int     `json:"availableLicenses"`
	IsDeleted         bool    `json:"isDeleted"`
}

type fakeUser struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	UniqueID string `json:"uniqueId,omitempty"`
	Licenses int    `json:"licenses"`
}

var fakeAdmin = map[string]any{"_id": "adm-root", "name": "Root", "email": "root@acme.io", "isSuperAdmin": true}

type fakeBulk struct {
	NewUsers      []fakeUser `json:"newUsers"`
	ExistingUsers []fakeUser `json:"existingUsers"`
	InvalidEmails []string   `json:"invalidEmails"`
}

// fakeUpstream is an in-memory admin API. It routes by hand because its
// path shapes overlap in ways http.ServeMux refuses.
type fakeUpstream struct {
	t   *testing.T
	srv *httptest.Server

	mu         sync.Mutex
	order      []string
	pods       map[string]*fakePod
	users      map[string][]fakeUser
	interviews map[string]json.RawMessage
	admins     []json.RawMessage
	calls      []string
	bulk       map[string]fakeBulk
	failBulk   map[string]bool
	failStats  map[string]bool
	seq        int

	// interviewPageCap caps the page size of pod interview listings.
	interviewPageCap int
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{
		t:          t,
		pods:       map[string]*fakePod{},
		users:      map[string][]fakeUser{},
		interviews: map[string]json.RawMessage{},
		admins:     []json.RawMessage{},
		bulk:       map[string]fakeBulk{},
		failBulk:   map[string]bool{},
		failStats:  map[string]bool{},
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeUpstream) addPod(id, name, parent string, total, assigned int) *fakePod {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &fakePod{
		ID: id, Name: name, Type: "organization", AssociatedEmail: id + "@acme.io",
		TotalLicenses: total, AssignedLicenses: assigned, AvailableLicenses: total - assigned,
	}
	if parent != "" {
		p.ParentPodID = &parent
	}
	f.pods[id] = p
	f.order = append(f.order, id)
	return p
}

func (f *fakeUpstream) addUser(podID string, u fakeUser) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[podID] = append(f.users[podID], u)
}

func (f *fakeUpstream) deletePod(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pods[id].IsDeleted = true
}

func (f *fakeUpstream) pod(id string) fakePod {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.pods[id]
}

func (f *fakeUpstream) sentBulk(podID string) fakeBulk {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bulk[podID]
}

func (f *fakeUpstream) called(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeUpstream) api() *upstream.API {
	client := upstream.New(f.srv.URL, 5*time.Second, slog.New(slog.DiscardHandler))
	return client.Bind(upstream.NewCredentials("upstream-token"))
}

func (f *fakeUpstream) reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeUpstream) fail(w http.ResponseWriter, status int, message string) {
	f.reply(w, status, map[string]string{"message": message})
}

func (f *fakeUpstream) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	seg := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	key := r.Method + " " + seg[0]

	switch {
	case key == "GET pods" && len(seg) == 2 && seg[1] == "all":
		all := r.URL.Query().Get("includeDeleted") == "true"
		out := []fakePod{}
		for _, id := range f.order {
			if p, ok := f.pods[id]; ok && (all || !p.IsDeleted) {
				out = append(out, *p)
			}
		}
		f.reply(w, 200, map[string]any{"pods": out})

	case key == "GET pods" && len(seg) == 4 && seg[1] == "filter":
		out := []fakePod{}
		for _, id := range f.order {
			if p, ok := f.pods[id]; ok && p.ParentPodID != nil && *p.ParentPodID == seg[3] {
				out = append(out, *p)
			}
		}
		f.reply(w, 200, map[string]any{"pods": out})

	case key == "POST pods" && len(seg) == 2 && seg[1] == "create":
		var in struct {
			Name        string  `json:"name"`
			Type        string  `json:"type"`
			Email       string  `json:"email"`
			ParentPodID *string `json:"parentPodId"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.seq++
		id := fmt.Sprintf("new-%d", f.seq)
		p := &fakePod{ID: id, Name: in.Name, Type: in.Type, AssociatedEmail: in.Email, ParentPodID: in.ParentPodID}
		f.pods[id] = p
		f.order = append(f.order, id)
		f.reply(w, 201, map[string]any{"pod": p})

	case key == "POST pods" && len(seg) == 3 && (seg[1] == "preview-users" || seg[1] == "upload-users-excel"):
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			f.fail(w, 400, "no file")
			return
		}
		if _, _, err := r.FormFile("excel"); err != nil {
			f.fail(w, 400, "no excel field")
			return
		}
		f.reply(w, 200, fakeBulk{NewUsers: []fakeUser{{Name: "P", Email: "p@acme.io"}}, ExistingUsers: []fakeUser{}, InvalidEmails: []string{}})

	case len(seg) >= 2 && seg[0] == "pods":
		f.servePod(w, r, seg[1], seg[2:])

	case key == "GET interviews" && len(seg) == 3 && seg[2] == "all-reports":
		f.reply(w, 200, map[string]any{"interviews": f.interviewList(""), "pagination": map[string]int{"page": 1, "limit": 10, "total": len(f.interviews), "pages": 1}})

	case key == "GET interviews" && len(seg) == 3 && seg[2] == "pod-statistics":
		f.reply(w, 200, map[string]any{"statistics": []map[string]any{
			{"podId": "root", "podName": "Root", "totalInterviews": 3},
			{"podId": "other", "podName": "Other", "totalInterviews": 1},
		}})

	case key == "GET interviews" && len(seg) == 4 && seg[1] == "pod":
		list := f.interviewList(seg[2])
		if status := r.URL.Query().Get("status"); status != "" {
			list = slices.DeleteFunc(list, func(raw json.RawMessage) bool {
				var iv struct {
					Status string `json:"status"`
				}
				_ = json.Unmarshal(raw, &iv)
				return iv.Status != status
			})
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if page < 1 {
			page = 1
		}
		if limit < 1 {
			limit = 10
		}
		if f.interviewPageCap > 0 && limit > f.interviewPageCap {
			limit = f.interviewPageCap
		}
		total := len(list)
		pages := max(1, (total+limit-1)/limit)
		start := min((page-1)*limit, total)
		end := min(start+limit, total)
		f.reply(w, 200, map[string]any{
			"interviews": list[start:end],
			"statistics": map[string]int{"totalInterviews": total, "totalUsers": len(f.users[seg[2]])},
			"pagination": map[string]int{"page": page, "limit": limit, "total": total, "pages": pages},
		})

	case key == "GET interviews" && len(seg) == 2:
		raw, ok := f.interviews[seg[1]]
		if !ok {
			f.fail(w, 404, "Interview not found")
			return
		}
		f.reply(w, 200, map[string]any{"interview": raw})

	case key == "DELETE interviews" && len(seg) == 2:
		delete(f.interviews, seg[1])
		f.reply(w, 200, map[string]string{"message": "deleted"})

	case key == "GET admin" && len(seg) == 1:
		f.reply(w, 200, f.admins)

	case key == "GET admin" && len(seg) == 2 && seg[1] == "users":
		f.reply(w, 200, map[string]any{"users": []fakeUser{{ID: "u1", Name: "A", Email: "a@acme.io"}}, "pagination": map[string]int{"page": 1, "limit": 10, "total": 1, "pages": 1}})

	case key == "POST admin" && len(seg) == 2 && seg[1] == "create-user":
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.reply(w, 201, map[string]any{"admin": map[string]any{"_id": "adm-new", "name": in["name"], "email": in["email"], "role": "viewer"}})

	case key == "POST admin" && len(seg) == 2 && seg[1] == "login":
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in["password"] != "secret" {
			f.fail(w, 401, "Invalid credentials")
			return
		}
		f.reply(w, 200, map[string]any{"token": "tok-1", "admin": fakeAdmin})

	case key == "POST admin" && len(seg) == 2 && seg[1] == "refresh-token":
		f.reply(w, 200, map[string]any{"token": "tok-2", "admin": fakeAdmin})

	case key == "POST admin" && len(seg) == 2 && seg[1] == "logout":
		f.reply(w, 200, map[string]string{"message": "bye"})

	case key == "POST admin" && len(seg) == 2 && seg[1] == "setup-password":
		f.reply(w, 200, map[string]string{"message": "password set"})

	case key == "GET admin" && len(seg) == 2 && seg[1] == "me":
		f.reply(w, 200, map[string]any{"admin": fakeAdmin})

	case key == "POST admin" && len(seg) == 2 && seg[1] == "create-role":
		f.reply(w, 201, map[string]string{"message": "created"})

	case key == "DELETE admin" && len(seg) == 2:
		f.reply(w, 200, map[string]string{"message": "deleted"})

	default:
		f.fail(w, 404, "no route "+r.Method+" "+r.URL.Path)
	}
}

func (f *fakeUpstream) interviewList(podID string) []json.RawMessage {
	out := []json.RawMessage{}
	for _, id := range slices.Sorted(maps.Keys(f.interviews)) {
		raw := f.interviews[id]
		var probe struct {
			PodID string `json:"podId"`
		}
		_ = json.Unmarshal(raw, &probe)
		if podID == "" || probe.PodID == podID {
			out = append(out, raw)
		}
	}
	return out
}

func (f *fakeUpstream) servePod(w http.ResponseWriter, r *http.Request, id string, rest []string) {
	p, ok := f.pods[id]
	if !ok {
		f.fail(w, 404, "Pod not found")
		return
	}
	action := r.Method + " " + strings.Join(rest, "/")

	switch {
	case action == "GET ":
		f.reply(w, 200, map[string]any{"pod": p})

	case action == "GET users":
		users := f.users[id]
		if users == nil {
			users = []fakeUser{}
		}
		f.reply(w, 200, map[string]any{"users": users, "pagination": map[string]int{"page": 1, "limit": 500, "total": len(users), "pages": 1}})

	case action == "GET analytics":
		if f.failStats[id] {
			f.fail(w, 500, "analytics unavailable")
			return
		}
		n := len(f.users[id])
		f.reply(w, 200, map[string]any{"analytics": map[string]any{"totalUsers": n, "verifiedUsers": n, "completionRate": float64(10 * n)}})

	case action == "GET hierarchy":
		children := []string{}
		for _, cid := range f.order {
			if c := f.pods[cid]; c.ParentPodID != nil && *c.ParentPodID == id {
				children = append(children, cid)
			}
		}
		f.reply(w, 200, map[string]any{"pod": p, "parent": p.ParentPodID, "children": children})

	case action == "POST add-user":
		var u fakeUser
		_ = json.NewDecoder(r.Body).Decode(&u)
		f.seq++
		u.ID = fmt.Sprintf("u-%d", f.seq)
		f.users[id] = append(f.users[id], u)
		f.assign(p, u.Licenses)
		f.reply(w, 201, map[string]string{"message": "added"})

	case r.Method == http.MethodDelete && len(rest) == 2 && rest[0] == "users":
		kept := f.users[id][:0]
		for _, u := range f.users[id] {
			if u.ID == rest[1] {
				f.assign(p, -u.Licenses)
				continue
			}
			kept = append(kept, u)
		}
		f.users[id] = kept
		f.reply(w, 200, map[string]string{"message": "removed"})

	case action == "POST bulk-add":
		body, _ := io.ReadAll(r.Body)
		var in fakeBulk
		if err := json.Unmarshal(body, &in); err != nil {
			f.t.Errorf("bulk-add body: %v", err)
		}
		f.bulk[id] = in
		if f.failBulk[id] {
			f.fail(w, 400, "bulk add rejected for "+p.Name)
			return
		}
		for _, u := range in.NewUsers {
			f.seq++
			u.ID = fmt.Sprintf("u-%d", f.seq)
			f.users[id] = append(f.users[id], u)
			f.assign(p, u.Licenses)
		}
		for _, u := range in.ExistingUsers {
			for i := range f.users[id] {
				if f.users[id][i].ID == u.ID {
					f.assign(p, u.Licenses-f.users[id][i].Licenses)
					f.users[id][i].Licenses = u.Licenses
				}
			}
		}
		f.reply(w, 200, map[string]string{"message": "ok"})

	case action == "DELETE soft-delete":
		p.IsDeleted = true
		f.reply(w, 200, map[string]string{"message": "deleted"})

	case action == "PATCH restore":
		p.IsDeleted = false
		f.reply(w, 200, map[string]string{"message": "restored"})

	case action == "DELETE permanent-delete":
		delete(f.pods, id)
		f.reply(w, 200, map[string]string{"message": "purged"})

	case action == "PUT licenses/set":
		var in struct {
			TotalLicenses int `json:"totalLicenses"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		p.TotalLicenses = in.TotalLicenses
		p.AvailableLicenses = in.TotalLicenses - p.AssignedLicenses
		f.reply(w, 200, map[string]any{"pod": p})

	case action == "POST licenses/add":
		var in struct {
			Amount int `json:"amount"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		p.TotalLicenses += in.Amount
		p.AvailableLicenses += in.Amount
		f.reply(w, 200, map[string]any{"pod": p})

	default:
		f.fail(w, 404, "no route "+action)
	}
}

func (f *fakeUpstream) assign(p *fakePod, n int) {
	p.AssignedLicenses += n
	p.AvailableLicenses -= n
	if p.AvailableLicenses < 0 {
		p.TotalLicenses -= p.AvailableLicenses
		p.AvailableLicenses = 0
	}
}

type testActor struct {
	api   *upstream.API
	admin *models.Admin
}

func (a testActor) API() *upstream.API   { return a.api }
func (a testActor) Admin() *models.Admin { return a.admin }

func superAdmin(f *fakeUpstream) testActor {
	return testActor{api: f.api(), admin: &models.Admin{ID: "adm-root", Email: "root@acme.io", Role: models.SuperAdminRole()}}
}

func scopedAdmin(f *fakeUpstream, podID string) testActor {
	return testActor{api: f.api(), admin: &models.Admin{ID: "adm-scoped", Email: "ops@acme.io", Role: models.NamedRole("ops", nil), PodID: &podID}}
}

type recordedEvent struct {
	kind, podID, changedBy string
	also                   []string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *recordingNotifier) BroadcastPodChange(kind, podID, changedBy string, alsoNotify ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{kind, podID, changedBy, alsoNotify})
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, e := range n.events {
		out[i] = e.kind + ":" + e.podID
	}
	return out
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
