package helpers

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/stretchr/testify/mock"

	"nhbrcforms/domain/apperrors"
	"nhbrcforms/domain/contracts"
	"nhbrcforms/domain/province"
	"nhbrcforms/domain/submission"
	"nhbrcforms/logging"
	"nhbrcforms/test/mocks"
)

// SilenceLogs routes the process default logger to io.Discard.
func SilenceLogs() {
	logging.SetDefault(logging.NewLoggerWithWriter(logging.DefaultConfig(), io.Discard))
}

// MockGraph holds a connector mock that hands out a single session mock
type MockGraph struct {
	Connector *mocks.MockGraphConnector
	Session   *mocks.MockGraphSession
}

// NewMockGraph creates a new set of Graph mocks
func NewMockGraph() *MockGraph {
	return &MockGraph{
		Connector: &mocks.MockGraphConnector{},
		Session:   &mocks.MockGraphSession{},
	}
}

// ExpectAcquire makes the connector return the session mock
func (m *MockGraph) ExpectAcquire() {
	m.Connector.On("Acquire", mock.Anything).Return(m.Session, nil)
}

// ExpectAcquireFailure makes token acquisition fail
func (m *MockGraph) ExpectAcquireFailure(err error) {
	m.Connector.On("Acquire", mock.Anything).Return(nil, err)
}

// ExpectSite sets up site resolution for siteURL
func (m *MockGraph) ExpectSite(siteURL, siteID string) {
	m.Session.On("ResolveSiteID", mock.Anything, siteURL).Return(siteID, nil)
}

// ExpectFolders sets up successful ensuring of root and root/builder
func (m *MockGraph) ExpectFolders(siteID, root, builder string) string {
	folder := root + "/" + builder
	m.Session.On("EnsureFolder", mock.Anything, siteID, "", root).Return(root, nil)
	m.Session.On("EnsureFolder", mock.Anything, siteID, root, builder).Return(folder, nil)
	return folder
}

// ExpectUpload sets up one successful upload into folder; calls are matched in order
func (m *MockGraph) ExpectUpload(siteID, folder, webURL string) {
	m.Session.On("UploadFile", mock.Anything, siteID, folder, mock.AnythingOfType("string"), mock.Anything, mock.AnythingOfType("int64")).
		Return(&contracts.DriveItem{ID: webURL, Name: webURL, WebURL: webURL}, nil).Once()
}

// ExpectUploadFailure sets up one failing upload into folder
func (m *MockGraph) ExpectUploadFailure(siteID, folder string, err error) {
	m.Session.On("UploadFile", mock.Anything, siteID, folder, mock.AnythingOfType("string"), mock.Anything, mock.AnythingOfType("int64")).
		Return(nil, err).Once()
}

// ExpectList sets up list resolution
func (m *MockGraph) ExpectList(siteID, name, listID string) {
	m.Session.On("FindList", mock.Anything, siteID, name).
		Return(&contracts.SharePointList{ID: listID, Name: name, DisplayName: name}, nil)
}

// ExpectListItem sets up list item creation with any field set
func (m *MockGraph) ExpectListItem(siteID, listID, itemID string) {
	m.Session.On("CreateListItem", mock.Anything, siteID, listID, mock.Anything).Return(itemID, nil)
}

// AssertAllExpectations verifies all mock expectations were met
func (m *MockGraph) AssertAllExpectations(t mock.TestingT) {
	m.Connector.AssertExpectations(t)
	m.Session.AssertExpectations(t)
}

// MemoryCounterStore is a goroutine-safe in-memory CounterStore.
type MemoryCounterStore struct {
	mu      sync.Mutex
	value   *int64
	Saves   []int64
	SaveErr error
	LoadErr error
}

// NewMemoryCounterStore creates a store; a nil initial value means no state was ever saved.
func NewMemoryCounterStore(initial *int64) *MemoryCounterStore {
	return &MemoryCounterStore{value: initial}
}

func (s *MemoryCounterStore) Load(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return 0, s.LoadErr
	}
	if s.value == nil {
		return 0, apperrors.ErrCounterStateMissing
	}
	return *s.value, nil
}

func (s *MemoryCounterStore) Save(ctx context.Context, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	v := value
	s.value = &v
	s.Saves = append(s.Saves, value)
	return nil
}

// Value returns the persisted value, or -1 when nothing was saved.
func (s *MemoryCounterStore) Value() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.value == nil {
		return -1
	}
	return *s.value
}

// TestData provides simple builders for test data
type TestData struct{}

// NewTestData creates a test data builder
func NewTestData() *TestData {
	return &TestData{}
}

// Target creates a configured province target
func (td *TestData) Target(p province.Province) province.Target {
	return province.Target{
		Province: p,
		SiteURL:  fmt.Sprintf("https://contoso.sharepoint.com/sites/%s", p.Key()),
		ListName: p.Key() + "Registrations",
	}
}

// Files creates n small PDF attachments named file1.pdf .. fileN.pdf
func (td *TestData) Files(n int) []submission.File {
	files := make([]submission.File, 0, n)
	for i := 1; i <= n; i++ {
		files = append(files, submission.NewFileFromBytes(
			fmt.Sprintf("fileUpload%d", i),
			fmt.Sprintf("file%d.pdf", i),
			"application/pdf",
			[]byte(fmt.Sprintf("%%PDF-1.4 file %d", i))))
	}
	return files
}

// Submission creates a submission for provinceName with n attachments
func (td *TestData) Submission(provinceName, builder string, n int) *submission.Submission {
	return &submission.Submission{
		Province:           provinceName,
		BuilderName:        builder,
		CompetentPerson:    "J. Mokoena",
		PropertyDetails:    "Erf 1234, Midrand",
		RegistrationNumber: "REG-001",
		CompanyName:        builder + " (Pty) Ltd",
		Files:              td.Files(n),
	}
}
