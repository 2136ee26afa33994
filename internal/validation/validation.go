// Package validation holds the form rules shared by every booking, registration
// and login entry point. Each validator is pure: it trims its input and returns
// a field to message map, empty when the form may be submitted.
package validation

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"traveler/internal/models"
)

// Field names used as FieldErrors keys.
const (
	FieldDestination       = "destination"
	FieldDepartureLocation = "departure_location"
	FieldCheckInDate       = "check_in_date"
	FieldCheckOutDate      = "check_out_date"
	FieldNumberOfGuests    = "number_of_guests"
	FieldAccommodationType = "accommodation_type"
	FieldRoomType          = "room_type"
	FieldContactName       = "contact_name"
	FieldContactEmail      = "contact_email"
	FieldContactPhone      = "contact_phone"

	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirm_password"
)

const (
	minUsernameLen = 3
	minPasswordLen = 6
	minPhoneLen    = 10
)

var emailPattern = regexp.MustCompile(
	`^[a-zA-Z0-9+._%\-]{1,256}@[a-zA-Z0-9][a-zA-Z0-9\-]{0,64}(\.[a-zA-Z0-9][a-zA-Z0-9\-]{0,25})+$`,
)

// FieldErrors maps a form field to its error message.
type FieldErrors map[string]string

// HasErrors reports whether any field failed.
func (e FieldErrors) HasErrors() bool {
	return len(e) > 0
}

// Add records msg for field unless the field already has an error.
func (e FieldErrors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// GuestCount is the guest field as typed. It stays text so that parse failures
// surface as a field error, and decodes from either a JSON string or a number.
type GuestCount string

func (g *GuestCount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*g = GuestCount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("number_of_guests must be a string or a number")
	}
	*g = GuestCount(n.String())
	return nil
}

// BookingInput is the raw text of a booking form.
type BookingInput struct {
	Destination       string     `json:"destination"`
	DepartureLocation string     `json:"departure_location"`
	CheckInDate       string     `json:"check_in_date"`
	CheckOutDate      string     `json:"check_out_date"`
	NumberOfGuests    GuestCount `json:"number_of_guests"`
	AccommodationType string     `json:"accommodation_type"`
	RoomType          string     `json:"room_type"`
	SpecialRequests   string     `json:"special_requests"`
	ContactName       string     `json:"contact_name"`
	ContactEmail      string     `json:"contact_email"`
	ContactPhone      string     `json:"contact_phone"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (in BookingInput) Trimmed() BookingInput {
	return BookingInput{
		Destination:       strings.TrimSpace(in.Destination),
		DepartureLocation: strings.TrimSpace(in.DepartureLocation),
		CheckInDate:       strings.TrimSpace(in.CheckInDate),
		CheckOutDate:      strings.TrimSpace(in.CheckOutDate),
		NumberOfGuests:    GuestCount(strings.TrimSpace(string(in.NumberOfGuests))),
		AccommodationType: strings.TrimSpace(in.AccommodationType),
		RoomType:          strings.TrimSpace(in.RoomType),
		SpecialRequests:   strings.TrimSpace(in.SpecialRequests),
		ContactName:       strings.TrimSpace(in.ContactName),
		ContactEmail:      strings.TrimSpace(in.ContactEmail),
		ContactPhone:      strings.TrimSpace(in.ContactPhone),
	}
}

// Guests returns the parsed guest count. Call it only after ValidateBooking passed.
func (in BookingInput) Guests() int {
	n, _ := strconv.Atoi(strings.TrimSpace(string(in.NumberOfGuests)))
	return n
}

// ApplyTo copies the form fields onto b, leaving id, owner, amount, status and
// creation time untouched.
func (in BookingInput) ApplyTo(b *models.TravelBooking) {
	t := in.Trimmed()
	b.Destination = t.Destination
	b.DepartureLocation = t.DepartureLocation
	b.CheckInDate = t.CheckInDate
	b.CheckOutDate = t.CheckOutDate
	b.NumberOfGuests = t.Guests()
	b.AccommodationType = t.AccommodationType
	b.RoomType = t.RoomType
	b.SpecialRequests = t.SpecialRequests
	b.ContactName = t.ContactName
	b.ContactEmail = t.ContactEmail
	b.ContactPhone = t.ContactPhone
}

// BookingInputFrom converts a stored booking back into form text.
func BookingInputFrom(b *models.TravelBooking) BookingInput {
	return BookingInput{
		Destination:       b.Destination,
		DepartureLocation: b.DepartureLocation,
		CheckInDate:       b.CheckInDate,
		CheckOutDate:      b.CheckOutDate,
		NumberOfGuests:    GuestCount(strconv.Itoa(b.NumberOfGuests)),
		AccommodationType: b.AccommodationType,
		RoomType:          b.RoomType,
		SpecialRequests:   b.SpecialRequests,
		ContactName:       b.ContactName,
		ContactEmail:      b.ContactEmail,
		ContactPhone:      b.ContactPhone,
	}
}

// RegistrationInput is the raw text of the registration form.
type RegistrationInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (in RegistrationInput) Trimmed() RegistrationInput {
	return RegistrationInput{
		Username:        strings.TrimSpace(in.Username),
		Email:           strings.TrimSpace(in.Email),
		Password:        strings.TrimSpace(in.Password),
		ConfirmPassword: strings.TrimSpace(in.ConfirmPassword),
	}
}

// LoginInput is the raw text of the login form.
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (in LoginInput) Trimmed() LoginInput {
	return LoginInput{
		Username: strings.TrimSpace(in.Username),
		Password: strings.TrimSpace(in.Password),
	}
}

// IsValidEmail reports whether s matches the email address grammar.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidateBooking checks a booking form. Create and edit share it.
// Check-out before check-in is deliberately not rejected.
func ValidateBooking(in BookingInput) FieldErrors {
	in = in.Trimmed()
	errs := FieldErrors{}

	required(errs, FieldDestination, in.Destination, "Destination is required")
	required(errs, FieldDepartureLocation, in.DepartureLocation, "Departure location is required")
	required(errs, FieldCheckInDate, in.CheckInDate, "Check-in date is required")
	required(errs, FieldCheckOutDate, in.CheckOutDate, "Check-out date is required")

	if in.NumberOfGuests == "" {
		errs.Add(FieldNumberOfGuests, "Number of guests is required")
	} else if n, err := strconv.Atoi(string(in.NumberOfGuests)); err != nil {
		errs.Add(FieldNumberOfGuests, "Please enter a valid number")
	} else if n < models.MinGuests || n > models.MaxGuests {
		errs.Add(FieldNumberOfGuests, "Number of guests must be between 1 and 20")
	}

	required(errs, FieldAccommodationType, in.AccommodationType, "Accommodation type is required")
	required(errs, FieldRoomType, in.RoomType, "Room type is required")
	required(errs, FieldContactName, in.ContactName, "Contact name is required")

	validateEmail(errs, FieldContactEmail, in.ContactEmail)

	if in.ContactPhone == "" {
		errs.Add(FieldContactPhone, "Phone number is required")
	} else if utf8.RuneCountInString(in.ContactPhone) < minPhoneLen {
		errs.Add(FieldContactPhone, "Please enter a valid phone number")
	}

	return errs
}

// ValidateRegistration checks the registration form. Uniqueness is checked by the caller.
func ValidateRegistration(in RegistrationInput) FieldErrors {
	in = in.Trimmed()
	errs := FieldErrors{}

	if in.Username == "" {
		errs.Add(FieldUsername, "Username is required")
	} else if utf8.RuneCountInString(in.Username) < minUsernameLen {
		errs.Add(FieldUsername, "Username must be at least 3 characters")
	}

	validateEmail(errs, FieldEmail, in.Email)

	if in.Password == "" {
		errs.Add(FieldPassword, "Password is required")
	} else if utf8.RuneCountInString(in.Password) < minPasswordLen {
		errs.Add(FieldPassword, "Password must be at least 6 characters")
	}

	if in.ConfirmPassword == "" {
		errs.Add(FieldConfirmPassword, "Please confirm your password")
	} else if in.Password != in.ConfirmPassword {
		errs.Add(FieldConfirmPassword, "Passwords do not match")
	}

	return errs
}

// ValidateLogin checks the login form.
func ValidateLogin(in LoginInput) FieldErrors {
	in = in.Trimmed()
	errs := FieldErrors{}
	required(errs, FieldUsername, in.Username, "Username is required")
	required(errs, FieldPassword, in.Password, "Password is required")
	return errs
}

func required(errs FieldErrors, field, value, msg string) {
	if value == "" {
		errs.Add(field, msg)
	}
}

func validateEmail(errs FieldErrors, field, value string) {
	if value == "" {
		errs.Add(field, "Email is required")
		return
	}
	if !IsValidEmail(value) {
		errs.Add(field, "Please enter a valid email")
	}
}
