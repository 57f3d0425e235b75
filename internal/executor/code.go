package executor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"voxdesk/internal/nlu"
)

const runTimeout = 10 * time.Second

var extensions = map[string]string{
	"python":     ".py",
	"java":       ".java",
	"html":       ".html",
	"css":        ".css",
	"javascript": ".js",
	"js":         ".js",
	"text":       ".txt",
	"c":          ".c",
	"cpp":        ".cpp",
	"go":         ".go",
}

var errOutsideWorkspace = errors.New("file name escapes the workspace")

type CodeConfig struct {
	Workspace string
	Editor    []string
	Python    string
}

// Code scaffolds, generates and runs files inside one workspace directory.
type Code struct {
	cfg     CodeConfig
	gen     TextGenerator
	run     Runner
	output  Output
	launch  Launcher
	openURL func(string) error
	logger  *slog.Logger
}

func NewCode(cfg CodeConfig, gen TextGenerator, logger *slog.Logger) *Code {
	if len(cfg.Editor) == 0 {
		cfg.Editor = []string{"code"}
	}
	if cfg.Python == "" {
		cfg.Python = "python3"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Code{
		cfg:     cfg,
		gen:     gen,
		run:     ExecRunner,
		output:  ExecOutput,
		launch:  ExecLauncher,
		openURL: OpenBrowser,
		logger:  logger,
	}
}

func (c *Code) Route() Route {
	return Route{
		Icon: "💻",
		ActionIcons: map[string]string{
			"open_vscode":  "💻",
			"close_vscode": "🛑",
			"create_file":  "📄",
			"write_code":   "✍️",
			"run_code":     "🚀",
		},
		Handle: c.Handle,
	}
}

func (c *Code) Handle(ctx context.Context, slots nlu.Slots) string {
	switch slots.Action("") {
	case "open_vscode", "open_editor":
		return c.openEditor()
	case "close_vscode", "close_editor":
		return c.closeEditor(ctx)
	case "create_file":
		return c.createFile(slots)
	case "write_code":
		return c.writeCode(ctx, slots)
	case "run_code":
		return c.runCode(ctx, slots)
	default:
		return "Unknown code action."
	}
}

func (c *Code) openEditor() string {
	if err := os.MkdirAll(c.cfg.Workspace, 0o755); err != nil {
		return warnf("Could not create workspace: %v", err)
	}
	args := append(append([]string(nil), c.cfg.Editor[1:]...), c.cfg.Workspace)
	if err := c.launch(c.cfg.Editor[0], args...); err != nil {
		return warnf("Could not open VS Code: %v", err)
	}
	return "VS Code opened in workspace."
}

func (c *Code) closeEditor(ctx context.Context) string {
	var err error
	switch runtime.GOOS {
	case "windows":
		_, err = c.run(ctx, "taskkill", "/IM", "Code.exe", "/F")
	case "darwin":
		_, err = c.run(ctx, "osascript", "-e", `quit app "Visual Studio Code"`)
	default:
		_, err = c.run(ctx, "pkill", "-x", "code")
	}
	if err != nil {
		c.logger.Debug("close editor", "err", err)
	}
	return "VS Code closed."
}

func (c *Code) createFile(slots nlu.Slots) string {
	filename := slots.Text("filename", "")
	if filename == "" {
		return failf("File name not provided.")
	}

	path, name, err := c.resolve(filename, slots.Text("language", "text"))
	if err != nil {
		return failf("%v", err)
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Sprintf("File %s already exists.", name)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return warnf("Could not create %s: %v", name, err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		return warnf("Could not create %s: %v", name, err)
	}
	return fmt.Sprintf("File %s created.", name)
}

const codePrompt = `You are a professional software developer.
Write clean and correct %s code for:
%s
Return ONLY code.`

func (c *Code) writeCode(ctx context.Context, slots nlu.Slots) string {
	filename := slots.Text("filename", "")
	instruction := slots.First("instruction", "description", "task")
	if filename == "" || instruction == "" {
		return failf("Missing filename or instruction.")
	}

	language := strings.ToLower(slots.Text("language", "python"))

	path, name, err := c.resolve(filename, language)
	if err != nil {
		return failf("%v", err)
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return failf("File does not exist.")
	}

	if c.gen == nil {
		return warnf("Code generation is not configured.")
	}
	out, err := c.gen.Generate(ctx, fmt.Sprintf(codePrompt, language, instruction))
	if err != nil {
		return warnf("Code generation failed: %v", err)
	}

	if err := os.WriteFile(path, []byte(StripFences(out)+"\n"), 0o644); err != nil {
		return warnf("Could not write %s: %v", name, err)
	}
	return "Code written to " + name
}

func (c *Code) runCode(ctx context.Context, slots nlu.Slots) string {
	filename := slots.Text("filename", "")
	if filename == "" {
		return warnf("Filename missing.")
	}

	language := strings.ToLower(slots.Text("language", ""))
	if language == "" {
		language = languageOf(filename)
	}

	switch language {
	case "python":
		path, _, err := c.resolve(filename, language)
		if err != nil {
			return failf("%v", err)
		}
		if _, err := os.Stat(path); err != nil {
			return failf("Python file not found.")
		}
		return c.runPython(ctx, path)

	case "html", "css", "javascript", "js":
		path, name, err := c.resolve(filename, language)
		if err != nil {
			return failf("%v", err)
		}
		if _, err := os.Stat(path); err != nil {
			return failf("File not found.")
		}
		if err := c.openURL("file://" + filepath.ToSlash(path)); err != nil {
			return warnf("Could not open browser: %v", err)
		}
		return fmt.Sprintf("Opened %s in browser.", name)
	}

	return warnf("Run not supported for this file type.")
}

func (c *Code) runPython(ctx context.Context, path string) string {
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	stdout, stderr, err := c.output(ctx, c.cfg.Python, path)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return warnf("Execution timed out.")
	}
	if s := strings.TrimSpace(stderr); s != "" {
		return failf("Error:\n%s", s)
	}
	if err != nil {
		return failf("Error: %v", err)
	}
	if s := strings.TrimSpace(stdout); s != "" {
		return "Output:\n" + s
	}
	return "Python file executed successfully (no output)."
}

// resolve maps a spoken file name onto a path inside the workspace, adding
// the language's extension unless already present.
func (c *Code) resolve(filename, language string) (path, name string, err error) {
	ext, ok := extensions[strings.ToLower(language)]
	if !ok {
		ext = ".txt"
	}

	name = strings.TrimSpace(filename)
	if filepath.Ext(name) != ext {
		name += ext
	}

	if filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return "", "", errOutsideWorkspace
	}

	root, err := filepath.Abs(c.cfg.Workspace)
	if err != nil {
		return "", "", fmt.Errorf("workspace: %w", err)
	}
	path = filepath.Join(root, name)

	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", "", errOutsideWorkspace
	}
	return path, name, nil
}

func languageOf(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	for lang, e := range extensions {
		if e == ext && lang != "js" {
			return lang
		}
	}
	return ""
}

// StripFences removes a surrounding markdown code fence, if any.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
