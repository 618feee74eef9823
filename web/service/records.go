package service

import (
	"context"
	"strings"

	"github.com/procodebh/crm-console/web/entity"
	"github.com/procodebh/crm-console/web/gateway"
)

type ResumeService struct{}

func (s *ResumeService) List(ctx context.Context, api *gateway.Client) ([]entity.Resume, error) {
	return listOf[entity.Resume](ctx, api, "/resumes")
}

// Create uploads a resume file for a candidate.
func (s *ResumeService) Create(ctx context.Context, api *gateway.Client, form entity.ResumeForm, file *gateway.File) (string, error) {
	if blank(form.Name, form.Email) || file == nil {
		return "", invalid("Name, email and resume file are required")
	}
	status := form.Status
	if status == "" {
		status = "Pending"
	}
	resp, err := api.Post(ctx, "/admin/createResume", gateway.Form{
		"name":   form.Name,
		"email":  form.Email,
		"phone":  form.Phone,
		"course": form.Course,
		"status": status,
		"resume": file,
	})
	if err != nil {
		return "", err
	}
	return messageOr(resp, "Resume added successfully"), nil
}

type PlacementService struct{}

func (s *PlacementService) List(ctx context.Context, api *gateway.Client) ([]entity.Placement, error) {
	return listOf[entity.Placement](ctx, api, "/placements")
}

func (s *PlacementService) Create(ctx context.Context, api *gateway.Client, form entity.PlacementForm) (string, error) {
	if blank(form.Student, form.CompanyName, form.JobRole) {
		return "", invalid("Student, company and job role are required")
	}
	if form.Status == "" {
		form.Status = "Placed"
	}
	resp, err := api.Post(ctx, "/admin/createPlacement", form)
	if err != nil {
		return "", err
	}
	return messageOr(resp, "Placement created successfully"), nil
}

type AlumniService struct{}

func (s *AlumniService) List(ctx context.Context, api *gateway.Client) ([]entity.Alumni, error) {
	return listOf[entity.Alumni](ctx, api, "/alumni")
}

func (s *AlumniService) Create(ctx context.Context, api *gateway.Client, form entity.AlumniForm) (string, error) {
	if blank(form.Student, form.PassingYear) {
		return "", invalid("Student and passing year are required")
	}
	resp, err := api.Post(ctx, "/admin/createAlumni", form)
	if err != nil {
		return "", err
	}
	return messageOr(resp, "Alumni created successfully"), nil
}

// ResumeStatusClass picks the badge style of a resume status.
func ResumeStatusClass(status string) string {
	switch strings.ToLower(status) {
	case "shortlisted", "selected":
		return "badge-success"
	case "rejected":
		return "badge-error"
	default:
		return "badge-warning"
	}
}
