package workflow

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockPage is a mock implementation of Page.
type MockPage struct {
	mock.Mock
}

func (m *MockPage) Navigate(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

func (m *MockPage) WaitVisible(ctx context.Context, locator string, timeout time.Duration) error {
	args := m.Called(ctx, locator, timeout)
	return args.Error(0)
}

func (m *MockPage) Type(ctx context.Context, locator, text string, perCharDelay time.Duration) error {
	args := m.Called(ctx, locator, text, perCharDelay)
	return args.Error(0)
}

func (m *MockPage) Select(ctx context.Context, locator, optionValue string) error {
	args := m.Called(ctx, locator, optionValue)
	return args.Error(0)
}

func (m *MockPage) Click(ctx context.Context, locator string) error {
	args := m.Called(ctx, locator)
	return args.Error(0)
}

func (m *MockPage) CurrentURL(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockPage) VisibleText(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockPage) WaitForNetworkIdle(ctx context.Context, timeout time.Duration) error {
	args := m.Called(ctx, timeout)
	return args.Error(0)
}

func (m *MockPage) Screenshot(ctx context.Context, destinationPath string) error {
	args := m.Called(ctx, destinationPath)
	return args.Error(0)
}

func (m *MockPage) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
