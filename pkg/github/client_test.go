package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		Token:       "test-token",
		TargetOwner: "talentgate",
		BaseURL:     server.URL,
		Logger:      zerolog.Nop(),
	})
	require.NoError(t, err)

	return client
}

func TestParseRepoFullName(t *testing.T) {
	cases := map[string]string{
		"https://github.com/acme/seed-kit":      "acme/seed-kit",
		"https://github.com/acme/seed-kit.git":  "acme/seed-kit",
		"https://github.com/acme/seed-kit/":     "acme/seed-kit",
		"git@github.com:acme/seed-kit.git":      "acme/seed-kit",
		"acme/seed-kit":                         "acme/seed-kit",
	}

	for input, want := range cases {
		got, err := parseRepoFullName(input)
		require.NoError(t, err, input)
		require.Equal(t, want, got)
	}

	_, err := parseRepoFullName("not-a-repo")
	require.Error(t, err)

	_, err = parseRepoFullName("https://github.com/")
	require.Error(t, err)
}

func TestEnsureSeedRepo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/seed-kit", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]string{"full_name": "acme/seed-kit"})
	})

	client := newTestClient(t, mux)

	fullName, err := client.EnsureSeedRepo(context.Background(), "https://github.com/acme/seed-kit")
	require.NoError(t, err)
	require.Equal(t, "acme/seed-kit", fullName)
}

func TestEnsureSeedRepoUnreachable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	client := newTestClient(t, mux)

	_, err := client.EnsureSeedRepo(context.Background(), "https://github.com/acme/missing")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not reachable")
}

func TestCompareCommits(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/candidate-1/compare/abc...def", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"files": []map[string]interface{}{
				{"filename": "main.go", "status": "modified", "additions": 12, "deletions": 3, "patch": "@@ diff"},
			},
		})
	})

	client := newTestClient(t, mux)

	diff, err := client.CompareCommits(context.Background(), "acme/candidate-1", "abc", "def")
	require.NoError(t, err)
	require.Len(t, diff.Files, 1)
	require.Equal(t, "main.go", diff.Files[0].Filename)
	require.Equal(t, 12, diff.Files[0].Additions)
}

func TestCompareCommitsRequiresRefs(t *testing.T) {
	client := newTestClient(t, http.NewServeMux())

	_, err := client.CompareCommits(context.Background(), "acme/candidate-1", "", "def")
	require.Error(t, err)
}

func TestGetCommitHistory(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/candidate-1/commits", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{
				"sha": "def456",
				"commit": map[string]interface{}{
					"message": "add ranking endpoint",
					"author":  map[string]string{"name": "Jo Dev", "date": "2026-08-01T10:00:00Z"},
				},
			},
		})
	})

	client := newTestClient(t, mux)

	commits, err := client.GetCommitHistory(context.Background(), "acme/candidate-1")
	require.NoError(t, err)
	require.Len(t, commits, 1)
	require.Equal(t, "def456", commits[0].SHA)
	require.Equal(t, "Jo Dev", commits[0].Author)
}

func TestCreateCandidateRepo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/seed-kit/generate", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "talentgate", body["owner"])
		require.Equal(t, true, body["private"])

		json.NewEncoder(w).Encode(map[string]string{"full_name": "talentgate/" + body["name"].(string)})
	})
	mux.HandleFunc("/repos/talentgate/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"commit": map[string]string{"sha": "abc123"},
		})
	})

	client := newTestClient(t, mux)

	result, err := client.CreateCandidateRepo(context.Background(), "acme/seed-kit")
	require.NoError(t, err)
	require.Contains(t, result.RepoFullName, "talentgate/candidate-")
	require.Equal(t, "abc123", result.PinnedMainSHA)
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{TargetOwner: "talentgate"})
	require.Error(t, err)

	_, err = NewClient(Config{Token: "t"})
	require.Error(t, err)
}
