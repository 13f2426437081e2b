package domain

import "time"

type Profile struct {
	UserID                 string
	FirstName              *string
	LastName               *string
	DateOfBirth            *time.Time
	Gender                 *string
	Status                 *string
	Occupation             *string
	Bio                    *string
	LookingForRelationship *bool
	Interests              []string
	CountryCode            *string
	State                  *string
	City                   *string
}

// Preference holds match-search settings created with the defaults the
// onboarding flow applies.
type Preference struct {
	UserID       string
	SearchRadius int
	MinAge       int
	MaxAge       int
}

// RegistrationDetails is the payload of the complete-registration operation.
type RegistrationDetails struct {
	Email                  *string
	FirstName              string
	LastName               string
	DateOfBirth            time.Time
	Gender                 string
	Status                 *string
	Occupation             *string
	Bio                    *string
	LookingForRelationship *bool
	Interests              []string
	CountryCode            *string
	State                  *string
	City                   *string
}

// Step is the client-side destination after a successful authentication.
type Step string

const (
	StepBasicInfo   Step = "basic-info"
	StepAboutYou    Step = "about-you"
	StepPreferences Step = "preferences"
	StepInterests   Step = "interests"
	StepPhotos      Step = "photos"
	StepLocation    Step = "location"
	StepPreview     Step = "preview"
	StepDashboard   Step = "dashboard"
)

// Path returns the frontend route for the step.
func (s Step) Path() string {
	if s == StepDashboard {
		return "/dashboard"
	}
	return "/onboard/" + string(s)
}

// NextStep walks the onboarding checklist in order and returns the first
// unmet step. Users who finished registration always go to the dashboard.
// profile may be nil when the user has not started onboarding.
func NextStep(user *User, profile *Profile, photoCount int) Step {
	if user.RegistrationCompleted {
		return StepDashboard
	}
	if profile == nil || profile.FirstName == nil {
		return StepBasicInfo
	}
	if profile.Status == nil {
		return StepAboutYou
	}
	if profile.LookingForRelationship == nil {
		return StepPreferences
	}
	if len(profile.Interests) == 0 {
		return StepInterests
	}
	if photoCount == 0 {
		return StepPhotos
	}
	if profile.CountryCode == nil {
		return StepLocation
	}
	return StepPreview
}
