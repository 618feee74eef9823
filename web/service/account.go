package service

import (
	"context"
	"strings"

	"github.com/procodebh/crm-console/web/entity"
	"github.com/procodebh/crm-console/web/gateway"
	"github.com/procodebh/crm-console/web/session"
)

// SignupService creates staff accounts.
type SignupService struct{}

func (s *SignupService) Create(ctx context.Context, api *gateway.Client, form entity.SignupForm) (string, error) {
	if blank(form.Name, form.Email, form.Password, form.Role) {
		return "", invalid("Please fill all required fields")
	}
	role, err := session.ParseRole(form.Role)
	if err != nil {
		return "", invalid("Please choose a valid role")
	}
	form.Email = strings.TrimSpace(form.Email)
	form.Role = string(role)
	resp, err := api.Post(ctx, "/admin/signup", form)
	if err != nil {
		return "", err
	}
	return messageOr(resp, "User created successfully"), nil
}

type ProfileService struct{}

func (s *ProfileService) Get(ctx context.Context, api *gateway.Client) (*entity.Profile, error) {
	return oneOf[entity.Profile](ctx, api, "/profile")
}

// Update saves the profile form, with a new image when one was chosen.
func (s *ProfileService) Update(ctx context.Context, api *gateway.Client, form entity.ProfileForm, image *gateway.File) (string, error) {
	if blank(form.Name, form.Email) {
		return "", invalid("Name and email are required")
	}
	status := form.Status
	if status == "" {
		status = "Active"
	}
	payload := gateway.Form{
		"name":        form.Name,
		"phone":       form.Phone,
		"email":       form.Email,
		"designation": form.Designation,
		"department":  form.Department,
		"experience":  form.Experience,
		"status":      status,
	}
	if image != nil {
		payload["profileImage"] = image
	}
	resp, err := api.Put(ctx, "/profile", payload)
	if err != nil {
		return "", err
	}
	return messageOr(resp, "Profile updated successfully"), nil
}
