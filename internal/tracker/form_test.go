package tracker

import (
	"context"
	"errors"
	"testing"

	"phone-tracker/internal/client"
	"phone-tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAPI is a mock implementation of the FormAPI and PhoneDeleter interfaces
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) Geolocate(ctx context.Context, phoneNumber string) (models.GeolocationResult, error) {
	args := m.Called(ctx, phoneNumber)
	return args.Get(0).(models.GeolocationResult), args.Error(1)
}

func (m *MockAPI) InsertPhone(ctx context.Context, phone models.NewTrackedPhone) (*models.TrackedPhone, error) {
	args := m.Called(ctx, phone)
	return args.Get(0).(*models.TrackedPhone), args.Error(1)
}

func (m *MockAPI) DeletePhone(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type positionFunc func(ctx context.Context) (Position, error)

func (f positionFunc) CurrentPosition(ctx context.Context) (Position, error) {
	return f(ctx)
}

func TestForm_Submit(t *testing.T) {
	nyc := models.GeolocationResult{Latitude: 40.7128, Longitude: -74.006, City: "New York", Country: "United States"}

	tests := []struct {
		name          string
		fields        Fields
		geolocate     *models.GeolocationResult
		geolocateErr  error
		insert        *models.NewTrackedPhone
		insertErr     error
		expectedError string
		expectAdded   bool
	}{
		{
			name:        "blank coordinates are geolocated and label defaults to the number",
			fields:      Fields{PhoneNumber: "+1 (212) 555-0100"},
			geolocate:   &nyc,
			insert:      &models.NewTrackedPhone{PhoneNumber: "+1 (212) 555-0100", Label: "+1 (212) 555-0100", Latitude: 40.7128, Longitude: -74.006},
			expectAdded: true,
		},
		{
			name:        "manual coordinates skip geolocation",
			fields:      Fields{PhoneNumber: "555-1234", Label: "Home", Latitude: "51.5072", Longitude: "-0.1276"},
			insert:      &models.NewTrackedPhone{PhoneNumber: "555-1234", Label: "Home", Latitude: 51.5072, Longitude: -0.1276},
			expectAdded: true,
		},
		{
			name:          "out of range latitude",
			fields:        Fields{PhoneNumber: "555-1234", Latitude: "91", Longitude: "0"},
			expectedError: MsgInvalidCoordinates,
		},
		{
			name:          "out of range longitude",
			fields:        Fields{PhoneNumber: "555-1234", Latitude: "0", Longitude: "-180.5"},
			expectedError: MsgInvalidCoordinates,
		},
		{
			name:          "not a number",
			fields:        Fields{PhoneNumber: "555-1234", Latitude: "north", Longitude: "0"},
			expectedError: MsgInvalidCoordinates,
		},
		{
			name:          "NaN",
			fields:        Fields{PhoneNumber: "555-1234", Latitude: "NaN", Longitude: "0"},
			expectedError: MsgInvalidCoordinates,
		},
		{
			name:          "missing phone number without coordinates",
			fields:        Fields{Latitude: "10"},
			expectedError: MsgPhoneRequired,
		},
		{
			name:          "geolocation transport failure uses the fallback",
			fields:        Fields{PhoneNumber: "555-1234"},
			geolocate:     &models.GeolocationResult{},
			geolocateErr:  errors.New("connection refused"),
			expectedError: MsgAutoDetectFailed,
		},
		{
			name:          "geolocation api failure uses the fallback",
			fields:        Fields{PhoneNumber: "555-1234"},
			geolocate:     &models.GeolocationResult{},
			geolocateErr:  &client.APIError{Status: 500, Message: "Failed to geolocate phone number"},
			expectedError: MsgAutoDetectFailed,
		},
		{
			name:          "whitespace coordinates are not geolocated",
			fields:        Fields{PhoneNumber: "555", Latitude: "  ", Longitude: " "},
			expectedError: MsgInvalidCoordinates,
		},
		{
			name:        "padded coordinates are trimmed",
			fields:      Fields{PhoneNumber: "555", Latitude: " 10.5 ", Longitude: "20 "},
			insert:      &models.NewTrackedPhone{PhoneNumber: "555", Label: "555", Latitude: 10.5, Longitude: 20},
			expectAdded: true,
		},
		{
			name:          "insert failure keeps the fields",
			fields:        Fields{PhoneNumber: "555-1234", Latitude: "1", Longitude: "2"},
			insert:        &models.NewTrackedPhone{PhoneNumber: "555-1234", Label: "555-1234", Latitude: 1, Longitude: 2},
			insertErr:     errors.New("timeout"),
			expectedError: MsgAddFailed,
		},
		{
			name:          "insert api failure shows the payload",
			fields:        Fields{PhoneNumber: "555-1234", Latitude: "1", Longitude: "2"},
			insert:        &models.NewTrackedPhone{PhoneNumber: "555-1234", Label: "555-1234", Latitude: 1, Longitude: 2},
			insertErr:     &client.APIError{Status: 400, Message: "Phone number is required"},
			expectedError: "Phone number is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(MockAPI)
			if tt.geolocate != nil {
				api.On("Geolocate", mock.Anything, tt.fields.PhoneNumber).Return(*tt.geolocate, tt.geolocateErr)
			}
			if tt.insert != nil {
				api.On("InsertPhone", mock.Anything, *tt.insert).Return(&models.TrackedPhone{ID: "x"}, tt.insertErr)
			}

			added := 0
			form := NewForm(api, func(context.Context) { added++ })
			form.Set(tt.fields)

			err := form.Submit(context.Background())
			state := form.State()

			assert.Equal(t, PhaseEditing, state.Phase)
			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Equal(t, tt.expectedError, err.Error())
				assert.Equal(t, tt.expectedError, state.Error)
				assert.Equal(t, tt.fields, state.Fields)
			} else {
				require.NoError(t, err)
				assert.Empty(t, state.Error)
				assert.Equal(t, Fields{}, state.Fields)
			}
			if tt.expectAdded {
				assert.Equal(t, 1, added)
			} else {
				assert.Zero(t, added)
			}

			api.AssertExpectations(t)
			if tt.geolocate == nil {
				api.AssertNotCalled(t, "Geolocate", mock.Anything, mock.Anything)
			}
			if tt.insert == nil {
				api.AssertNotCalled(t, "InsertPhone", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestForm_SubmitWhileBusy(t *testing.T) {
	api := new(MockAPI)
	form := NewForm(api, nil)
	form.Set(Fields{PhoneNumber: "555-1234"})

	release := make(chan struct{})
	entered := make(chan struct{})
	api.On("Geolocate", mock.Anything, "555-1234").
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(models.GeolocationResult{}, errors.New("down"))

	done := make(chan error)
	go func() { done <- form.Submit(context.Background()) }()

	<-entered
	assert.Equal(t, PhaseGeolocating, form.State().Phase)
	assert.ErrorIs(t, form.Submit(context.Background()), ErrBusy)
	assert.ErrorIs(t, form.AutoLocate(context.Background()), ErrBusy)

	close(release)
	assert.EqualError(t, <-done, MsgAutoDetectFailed)
	assert.Equal(t, PhaseEditing, form.State().Phase)
}

func TestForm_AutoLocate(t *testing.T) {
	t.Run("fills coordinates with six decimals", func(t *testing.T) {
		api := new(MockAPI)
		api.On("Geolocate", mock.Anything, "555-1234").
			Return(models.GeolocationResult{Latitude: 40.7128, Longitude: -74.006}, nil)
		form := NewForm(api, nil)
		form.Set(Fields{PhoneNumber: "555-1234"})

		require.NoError(t, form.AutoLocate(context.Background()))

		state := form.State()
		assert.Equal(t, "40.712800", state.Latitude)
		assert.Equal(t, "-74.006000", state.Longitude)
		assert.False(t, state.Locating)
		api.AssertNotCalled(t, "InsertPhone", mock.Anything, mock.Anything)
	})

	t.Run("requires a phone number", func(t *testing.T) {
		api := new(MockAPI)
		form := NewForm(api, nil)

		assert.EqualError(t, form.AutoLocate(context.Background()), MsgPhoneRequiredFirst)
		assert.Equal(t, MsgPhoneRequiredFirst, form.State().Error)
		api.AssertNotCalled(t, "Geolocate", mock.Anything, mock.Anything)
	})

	t.Run("failure", func(t *testing.T) {
		api := new(MockAPI)
		api.On("Geolocate", mock.Anything, "555-1234").Return(models.GeolocationResult{}, errors.New("down"))
		form := NewForm(api, nil)
		form.Set(Fields{PhoneNumber: "555-1234"})

		assert.EqualError(t, form.AutoLocate(context.Background()), MsgGeolocateFailed)
		assert.Equal(t, MsgGeolocateFailed, form.State().Error)
	})

	t.Run("api failure uses the fixed message", func(t *testing.T) {
		api := new(MockAPI)
		api.On("Geolocate", mock.Anything, "555-1234").
			Return(models.GeolocationResult{}, &client.APIError{Status: 400, Message: "Phone number is required"})
		form := NewForm(api, nil)
		form.Set(Fields{PhoneNumber: "555-1234"})

		assert.EqualError(t, form.AutoLocate(context.Background()), MsgGeolocateFailed)
		assert.Empty(t, form.State().Latitude)
	})
}

func TestForm_UseCurrentLocation(t *testing.T) {
	t.Run("no position source", func(t *testing.T) {
		form := NewForm(new(MockAPI), nil)

		assert.EqualError(t, form.UseCurrentLocation(context.Background(), nil), MsgGeolocationNoSupport)
		assert.Equal(t, PhaseEditing, form.State().Phase)
	})

	t.Run("source failure", func(t *testing.T) {
		form := NewForm(new(MockAPI), nil)
		src := positionFunc(func(context.Context) (Position, error) {
			return Position{}, errors.New("User denied Geolocation")
		})

		assert.EqualError(t, form.UseCurrentLocation(context.Background(), src), "Failed to get location: User denied Geolocation")
	})

	t.Run("fills coordinates", func(t *testing.T) {
		form := NewForm(new(MockAPI), nil)
		form.Set(Fields{PhoneNumber: "555-1234", Label: "Me"})
		src := positionFunc(func(context.Context) (Position, error) {
			return Position{Latitude: 48.8566, Longitude: 2.3522}, nil
		})

		require.NoError(t, form.UseCurrentLocation(context.Background(), src))

		assert.Equal(t, Fields{PhoneNumber: "555-1234", Label: "Me", Latitude: "48.856600", Longitude: "2.352200"}, form.State().Fields)
	})
}
