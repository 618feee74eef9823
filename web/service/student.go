package service

import (
	"context"
	"net/url"

	"github.com/procodebh/crm-console/web/entity"
	"github.com/procodebh/crm-console/web/gateway"
)

// StudentPageSize is how many more cards "load more" reveals.
const StudentPageSize = 6

type StudentService struct{}

func (s *StudentService) List(ctx context.Context, api *gateway.Client) ([]entity.Student, error) {
	return listOf[entity.Student](ctx, api, "/students")
}

func (s *StudentService) Get(ctx context.Context, api *gateway.Client, id string) (*entity.Student, error) {
	return oneOf[entity.Student](ctx, api, "/students/"+url.PathEscape(id))
}

// Create enrolls a student. Every field is required; the image is optional.
func (s *StudentService) Create(ctx context.Context, api *gateway.Client, form entity.StudentForm, image *gateway.File) (string, error) {
	if !form.Complete() {
		return "", invalid("Please fill all required fields")
	}
	payload := gateway.Form{
		"name":          form.Name,
		"gender":        form.Gender,
		"age":           form.Age,
		"qualification": form.Qualification,
		"email":         form.Email,
		"phone":         form.Phone,
		"address":       form.Address,
		"course":        form.Course,
		"batch":         form.Batch,
	}
	if image != nil {
		payload["profileImage"] = image
	}
	resp, err := api.Post(ctx, "/admin/create-students", payload)
	if err != nil {
		return "", err
	}
	return messageOr(resp, "Student created successfully"), nil
}

// Update saves an edited student and returns the backend's copy when it
// sends one.
func (s *StudentService) Update(ctx context.Context, api *gateway.Client, id string, form entity.StudentForm) (*entity.Student, string, error) {
	if blank(form.Name, form.Email) {
		return nil, "", invalid("Name and email are required")
	}
	resp, err := api.Put(ctx, "/students/"+url.PathEscape(id), form)
	if err != nil {
		return nil, "", err
	}
	var updated *entity.Student
	if err := resp.Decode(&updated); err != nil {
		return nil, "", err
	}
	return updated, messageOr(resp, "Student updated successfully"), nil
}

func (s *StudentService) Delete(ctx context.Context, api *gateway.Client, id string) error {
	_, err := api.Delete(ctx, "/students/"+url.PathEscape(id))
	return err
}

// FilterStudents keeps the students matching query, in order.
func FilterStudents(students []entity.Student, query string) []entity.Student {
	out := make([]entity.Student, 0, len(students))
	for _, st := range students {
		if st.Matches(query) {
			out = append(out, st)
		}
	}
	return out
}

// VisibleCount clamps a requested "load more" count to the list size, with a
// minimum of one page.
func VisibleCount(requested, total int) int {
	if requested < StudentPageSize {
		requested = StudentPageSize
	}
	if requested > total {
		return total
	}
	return requested
}
