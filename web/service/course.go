package service

import (
	"context"
	"net/url"

	"github.com/procodebh/crm-console/web/entity"
	"github.com/procodebh/crm-console/web/gateway"
)

type CourseService struct{}

func (s *CourseService) List(ctx context.Context, api *gateway.Client) ([]entity.Course, error) {
	return listOf[entity.Course](ctx, api, "/courses")
}

func (s *CourseService) Get(ctx context.Context, api *gateway.Client, id string) (*entity.Course, error) {
	return oneOf[entity.Course](ctx, api, "/courses/"+url.PathEscape(id))
}

// Create adds a course. Name, duration, fee and image are required.
func (s *CourseService) Create(ctx context.Context, api *gateway.Client, form entity.CourseForm, image *gateway.File) (string, error) {
	if !form.Required() || image == nil {
		return "", invalid("Please fill all required fields")
	}
	level, mode, status := form.Level, form.Mode, form.Status
	if level == "" {
		level = "Beginner"
	}
	if mode == "" {
		mode = "Offline"
	}
	if status == "" {
		status = "Active"
	}
	payload := gateway.Form{
		"courseName":  form.CourseName,
		"duration":    form.Duration,
		"fee":         form.Fee,
		"description": form.Description,
		"eligibility": form.Eligibility,
		"level":       level,
		"mode":        mode,
		"status":      status,
		"startDate":   form.StartDate,
		"syllabus":    gateway.JSONString{Value: form.SyllabusTopics()},
		"instructor": map[string]any{
			"name":       form.InstructorName,
			"experience": form.InstructorExperience,
		},
		"courseImg": image,
	}
	resp, err := api.Post(ctx, "/admin/createCourse", payload)
	if err != nil {
		return "", err
	}
	return messageOr(resp, "Course created successfully"), nil
}

// Update saves an edited course as JSON.
func (s *CourseService) Update(ctx context.Context, api *gateway.Client, id string, form entity.CourseForm) (string, error) {
	if !form.Required() {
		return "", invalid("Please fill required fields")
	}
	resp, err := api.Put(ctx, "/courses/"+url.PathEscape(id), form)
	if err != nil {
		return "", err
	}
	return messageOr(resp, "Course updated successfully"), nil
}

func (s *CourseService) Delete(ctx context.Context, api *gateway.Client, id string) error {
	_, err := api.Delete(ctx, "/courses/"+url.PathEscape(id))
	return err
}
