package capability

import "context"

// FakeFile is an in-memory File implementation for tests, adapted from the
// mock-tool pattern used elsewhere in this codebase: a fixed map of paths
// to contents, with writes recorded back into the same map.
type FakeFile struct {
	Files map[string]string
}

// NewFakeFile creates a FakeFile seeded with the given contents.
func NewFakeFile(seed map[string]string) *FakeFile {
	files := make(map[string]string, len(seed))
	for k, v := range seed {
		files[k] = v
	}
	return &FakeFile{Files: files}
}

func (f *FakeFile) Read(path string) (FileResult, error) {
	content, ok := f.Files[path]
	if !ok {
		return FileResult{Path: path, Err: &ToolError{Capability: "file", Message: "file not found: " + path}}, nil
	}
	return FileResult{Content: content, Path: path}, nil
}

func (f *FakeFile) Write(path, content string) (WriteResult, error) {
	f.Files[path] = content
	return WriteResult{OK: true, Bytes: len(content)}, nil
}

// FakeTest is a scripted Test implementation for tests.
type FakeTest struct {
	Result TestResult
	Err    error
}

func (f *FakeTest) Run(ctx context.Context) (TestResult, error) { return f.Result, f.Err }

// FakeSecurity is a scripted Security implementation for tests.
type FakeSecurity struct {
	TextOK      bool
	TextPattern string
	RepoResult  ScanResult
	RepoErr     error
}

func (f *FakeSecurity) ScanText(text string, patterns []string) (bool, string) {
	return f.TextOK, f.TextPattern
}

func (f *FakeSecurity) ScanRepo(patterns []string) (ScanResult, error) {
	return f.RepoResult, f.RepoErr
}
