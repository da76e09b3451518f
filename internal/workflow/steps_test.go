package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/EdenOved/formpilot/internal/form"
	"github.com/EdenOved/formpilot/internal/humanoid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestLoader(t *testing.T) {
	t.Run("waits for body then each locator", func(t *testing.T) {
		page := new(MockPage)
		var order []string
		record := func(args mock.Arguments) { order = append(order, args.String(1)) }
		page.On("WaitVisible", mock.Anything, "body", bodyTimeout).Return(nil).Run(record).Once()
		page.On("WaitVisible", mock.Anything, mock.Anything, elementTimeout).Return(nil).Run(record)

		l := NewLoader(zaptest.NewLogger(t), bodyTimeout, elementTimeout)
		require.NoError(t, l.Load(context.Background(), page, []string{"#a", "#b"}))
		assert.Equal(t, []string{"body", "#a", "#b"}, order)
	})

	t.Run("missing body", func(t *testing.T) {
		page := new(MockPage)
		page.On("WaitVisible", mock.Anything, "body", bodyTimeout).Return(errNotVisible).Once()

		err := NewLoader(zaptest.NewLogger(t), bodyTimeout, elementTimeout).Load(context.Background(), page, []string{"#a"})
		var elemErr *ElementTimeoutError
		require.ErrorAs(t, err, &elemErr)
		assert.Equal(t, "body", elemErr.Locator)
		assert.Equal(t, bodyTimeout, elemErr.Timeout)
		page.AssertNumberOfCalls(t, "WaitVisible", 1)
	})
}

func TestFiller(t *testing.T) {
	spec := form.NewSpec(formURL, []form.Field{
		{Role: form.RoleName, Locator: "#name"},
		{Role: form.RoleEmployees, Locator: "#employees"},
	}, submitSel, "", nil)

	t.Run("types each rune with the injected delay", func(t *testing.T) {
		page := new(MockPage)
		page.On("WaitVisible", mock.Anything, "#name", elementTimeout).Return(nil).Once()
		var typed string
		page.On("Type", mock.Anything, "#name", mock.Anything, 5*time.Millisecond).Return(nil).
			Run(func(args mock.Arguments) { typed += args.String(2) })

		f := NewFiller(zaptest.NewLogger(t), elementTimeout, humanoid.Fixed(5*time.Millisecond))
		data := form.NewData(spec, map[form.Role]string{form.RoleName: "Ēden"})
		require.NoError(t, f.Fill(context.Background(), page, data))

		assert.Equal(t, "Ēden", typed)
		page.AssertNumberOfCalls(t, "Type", 4)
		page.AssertNotCalled(t, "Select", mock.Anything, mock.Anything, mock.Anything)
		page.AssertNotCalled(t, "WaitVisible", mock.Anything, "#employees", mock.Anything)
	})

	t.Run("delay func sees the whole value", func(t *testing.T) {
		page := new(MockPage)
		page.On("WaitVisible", mock.Anything, "#name", elementTimeout).Return(nil).Once()
		page.On("Type", mock.Anything, "#name", mock.Anything, mock.Anything).Return(nil)

		var indexes []int
		delay := func(text []rune, i int) time.Duration {
			assert.Equal(t, "abc", string(text))
			indexes = append(indexes, i)
			return 0
		}
		f := NewFiller(zaptest.NewLogger(t), elementTimeout, delay)
		require.NoError(t, f.Fill(context.Background(), page, form.NewData(spec, map[form.Role]string{form.RoleName: "abc"})))
		assert.Equal(t, []int{0, 1, 2}, indexes)
	})

	t.Run("field never visible", func(t *testing.T) {
		page := new(MockPage)
		page.On("WaitVisible", mock.Anything, "#name", elementTimeout).Return(errNotVisible).Once()

		f := NewFiller(zaptest.NewLogger(t), elementTimeout, humanoid.Fixed(0))
		err := f.Fill(context.Background(), page, form.NewData(spec, map[form.Role]string{form.RoleName: "x"}))
		var fillErr *FieldFillError
		require.ErrorAs(t, err, &fillErr)
		assert.Equal(t, "#name", fillErr.Locator)
		assert.ErrorIs(t, err, ErrFieldFill)
		assert.ErrorIs(t, err, errNotVisible)
	})

	t.Run("select failure", func(t *testing.T) {
		page := new(MockPage)
		page.On("WaitVisible", mock.Anything, mock.Anything, elementTimeout).Return(nil)
		page.On("Type", mock.Anything, "#name", mock.Anything, mock.Anything).Return(nil)
		page.On("Select", mock.Anything, "#employees", "9000+").Return(errors.New("no such option")).Once()

		f := NewFiller(zaptest.NewLogger(t), elementTimeout, humanoid.Fixed(0))
		data := form.NewData(spec, map[form.Role]string{form.RoleName: "x", form.RoleEmployees: "9000+"})
		err := f.Fill(context.Background(), page, data)
		var fillErr *FieldFillError
		require.ErrorAs(t, err, &fillErr)
		assert.Equal(t, "employees", fillErr.Role)
	})
}

func TestStateMachine(t *testing.T) {
	now := func() time.Time { return time.Unix(0, 0) }

	t.Run("rejects skipping a stage", func(t *testing.T) {
		m := newMachine(now)
		require.NoError(t, m.moveTo(StateLoaded))
		err := m.moveTo(StateFilled)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Loaded -> Filled")
		assert.Equal(t, StateLoaded, m.current)
	})

	t.Run("fail is a no-op once terminal", func(t *testing.T) {
		m := newMachine(now)
		require.NoError(t, m.moveTo(StateLoaded))
		require.NoError(t, m.moveTo(StateRejected))
		m.fail()
		assert.Equal(t, StateRejected, m.current)
		assert.Len(t, m.history, 2)
	})

	t.Run("terminal states", func(t *testing.T) {
		for _, s := range []State{StateSucceeded, StateFailed, StateRejected} {
			assert.True(t, s.Terminal(), s)
		}
		for _, s := range []State{StateIdle, StateSubmitting, StateValidating} {
			assert.False(t, s.Terminal(), s)
		}
	})
}

func TestErrorMessages(t *testing.T) {
	cause := errors.New("boom")
	testCases := []struct {
		err      error
		sentinel error
		contains string
	}{
		{&NavigationError{URL: formURL, Err: cause}, ErrNavigation, formURL},
		{&ElementTimeoutError{Locator: "#name", Timeout: time.Second, Err: cause}, ErrElementTimeout, "#name"},
		{&FieldFillError{Locator: "#phone", Role: "phone", Err: cause}, ErrFieldFill, "phone field '#phone'"},
		{&SubmitError{Locator: submitSel, Attempts: 3, Err: cause}, ErrSubmit, "after 3 attempts"},
		{&NavigationTimeoutError{Timeout: time.Second, Err: cause}, ErrNavigationTimeout, "1s"},
		{&ValidationError{Step: "visible text", Err: cause}, ErrValidation, "visible text"},
	}
	for _, tc := range testCases {
		assert.ErrorIs(t, tc.err, tc.sentinel)
		assert.ErrorIs(t, tc.err, cause)
		assert.Contains(t, tc.err.Error(), tc.contains)
		assert.Contains(t, tc.err.Error(), "boom")
	}
}
