package quiz

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gtcs8803/submit/internal/render"
)

// How a CLI quiz name maps to a submission
type Quiz struct {
	// Name typed on the command line
	Name string
	// Key the grading service knows the quiz by
	Key string
	// Directory holding the files, relative to where the tool runs
	Dir       string
	Filenames []string
	// Artifact filename prefix
	Prefix  string
	Variant render.Variant
}

// A family of quizzes submitted by one subcommand
type Tool struct {
	Name        string
	Description string
	// Ordered as shown in help
	Quizzes []Quiz
	// Set when the tool takes no quiz argument
	Default string
}

var ErrUnknownQuiz = errors.New("unknown quiz")

// Resolves a quiz by CLI name; an empty name selects the tool's default
func (t Tool) Lookup(name string) (Quiz, error) {
	if name == "" {
		name = t.Default
	}

	for _, q := range t.Quizzes {
		if q.Name == name {
			return q, nil
		}
	}

	return Quiz{}, fmt.Errorf("%w %q for %s, expected one of %v", ErrUnknownQuiz, name, t.Name, t.Names())
}

func (t Tool) Names() []string {
	names := make([]string, 0, len(t.Quizzes))
	for _, q := range t.Quizzes {
		names = append(names, q.Name)
	}

	return names
}

func minimal(name, key, dir string, files ...string) Quiz {
	return Quiz{Name: name, Key: key, Dir: dir, Filenames: files, Prefix: name, Variant: render.VariantMinimal}
}

var PR1 = Tool{
	Name:        "pr1",
	Description: "Submit a Project 1 quiz (echo, transfer and getfile)",
	Quizzes: []Quiz{
		minimal("echo", "pr1_echo_client_server", "echo", "echoclient.c", "echoserver.c", "README"),
		minimal("transfer", "pr1_transfer", "transfer", "transferclient.c", "transferserver.c", "README"),
		minimal("gfclient", "pr1_gfclient", "gflib", "gfclient.c", "README"),
		minimal("gfserver", "pr1_gfserver", "gflib", "gfserver.c", "README"),
		minimal("gfclient_mt", "pr1_gfclient_mt", "mtgf", "gfclient_download.c", "README"),
		minimal("gfserver_mt", "pr1_gfserver_mt", "mtgf", "gfserver_main.c", "handler.c", "README"),
	},
}

var PR2 = Tool{
	Name:        "pr2",
	Description: "Submit the Project 2 sandbox",
	Default:     "sandbox",
	Quizzes: []Quiz{
		{
			Name:      "sandbox",
			Key:       "pr2_sandbox",
			Dir:       ".",
			Filenames: []string{"pr2_sandbox.c"},
			Prefix:    "pr2_sandbox",
			Variant:   render.VariantRaw,
		},
	},
}

var PR3 = Tool{
	Name:        "pr3",
	Description: "Submit a Project 3 quiz (proxy and cache)",
	Quizzes: []Quiz{
		minimal("proxy", "pr3_proxy", "server", "handle_with_curl.c", "webproxy.c", "readme-student.md"),
		minimal(
			"cache", "pr3_cache", "cache",
			"handle_with_cache.c", "shm_channel.c", "shm_channel.h", "simplecached.c", "webproxy.c", "readme-student.md",
		),
	},
}

func extended(name, key string, files ...string) Quiz {
	return Quiz{Name: name, Key: key, Dir: ".", Filenames: files, Prefix: key, Variant: render.VariantExtended}
}

var PR4 = Tool{
	Name:        "pr4",
	Description: "Submit a Project 4 quiz (rpc and readme)",
	Quizzes: []Quiz{
		extended(
			"rpc", "pr4_rpc",
			"minify_via_rpc.c", "minifyjpeg.h", "minifyjpeg_clnt.c", "minifyjpeg_xdr.c", "minifyjpeg.c",
			"minifyjpeg.x", "minifyjpeg_svc.c",
		),
		extended("readme", "pr4_readme", "readme-student.md"),
	},
}

var Tools = []Tool{PR1, PR2, PR3, PR4}

func FindTool(name string) (Tool, bool) {
	i := slices.IndexFunc(Tools, func(t Tool) bool { return t.Name == name })
	if i < 0 {
		return Tool{}, false
	}

	return Tools[i], true
}
