// Package catalog manages course categories, their subcategories and the
// courses filed under them. The catalog is local to the admin's machine.
package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dhanwis/tutoradmin/internal/errors"
)

// Subcategory is a subject area within a category.
type Subcategory struct {
	ID   int    `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// Category is a top-level course grouping.
type Category struct {
	ID            int           `yaml:"id" json:"id"`
	Name          string        `yaml:"name" json:"name"`
	Subcategories []Subcategory `yaml:"subcategories" json:"subcategories"`
}

// Course is filed under one category and one of its subcategories.
type Course struct {
	ID            int    `yaml:"id" json:"id"`
	Title         string `yaml:"title" json:"title"`
	CategoryID    int    `yaml:"category_id" json:"category_id"`
	SubcategoryID int    `yaml:"subcategory_id" json:"subcategory_id"`
	Tutor         string `yaml:"tutor" json:"tutor"`
}

// Catalog is the whole course tree. IDs are allocated from a single counter
// shared by categories, subcategories and courses and are never reused.
type Catalog struct {
	NextID     int        `yaml:"next_id" json:"next_id"`
	Categories []Category `yaml:"categories" json:"categories"`
	Courses    []Course   `yaml:"courses" json:"courses"`
}

// Seed returns the catalog a fresh install starts with.
func Seed() *Catalog {
	return &Catalog{
		NextID: 23,
		Categories: []Category{
			{ID: 1, Name: "Web Development", Subcategories: []Subcategory{{ID: 11, Name: "Frontend"}, {ID: 12, Name: "Backend"}}},
			{ID: 2, Name: "Data Science", Subcategories: []Subcategory{{ID: 21, Name: "Python"}, {ID: 22, Name: "Machine Learning"}}},
		},
		Courses: []Course{
			{ID: 3, Title: "React for Beginners", CategoryID: 1, SubcategoryID: 11, Tutor: "John Doe"},
			{ID: 4, Title: "Python for Data Analysis", CategoryID: 2, SubcategoryID: 21, Tutor: "Jane Smith"},
		},
	}
}

// allocate returns a fresh id, repairing the counter if a hand-edited file
// left it behind an existing id.
func (c *Catalog) allocate() int {
	maxID := 0
	for _, cat := range c.Categories {
		maxID = max(maxID, cat.ID)
		for _, sub := range cat.Subcategories {
			maxID = max(maxID, sub.ID)
		}
	}
	for _, course := range c.Courses {
		maxID = max(maxID, course.ID)
	}
	if c.NextID <= maxID {
		c.NextID = maxID + 1
	}
	id := c.NextID
	c.NextID++
	return id
}

func requireName(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errors.NewValidationError(field + " cannot be empty").WithField(field)
	}
	return value, nil
}

// Category returns the category with id.
func (c *Catalog) Category(id int) (*Category, error) {
	for i := range c.Categories {
		if c.Categories[i].ID == id {
			return &c.Categories[i], nil
		}
	}
	return nil, errors.NewNotFoundError("category", fmt.Sprint(id))
}

// Subcategory returns the subcategory subID of category catID.
func (c *Catalog) Subcategory(catID, subID int) (*Subcategory, error) {
	cat, err := c.Category(catID)
	if err != nil {
		return nil, err
	}
	for i := range cat.Subcategories {
		if cat.Subcategories[i].ID == subID {
			return &cat.Subcategories[i], nil
		}
	}
	return nil, errors.NewNotFoundError("subcategory", fmt.Sprint(subID))
}

// AddCategory appends a category with no subcategories.
func (c *Catalog) AddCategory(name string) (Category, error) {
	name, err := requireName("name", name)
	if err != nil {
		return Category{}, err
	}
	cat := Category{ID: c.allocate(), Name: name, Subcategories: []Subcategory{}}
	c.Categories = append(c.Categories, cat)
	return cat, nil
}

// AddSubcategory appends a subcategory to an existing category.
func (c *Catalog) AddSubcategory(catID int, name string) (Subcategory, error) {
	name, err := requireName("name", name)
	if err != nil {
		return Subcategory{}, err
	}
	cat, err := c.Category(catID)
	if err != nil {
		return Subcategory{}, err
	}
	sub := Subcategory{ID: c.allocate(), Name: name}
	cat.Subcategories = append(cat.Subcategories, sub)
	return sub, nil
}

// AddCourse files a course. Every field is required and the subcategory
// must belong to the category.
func (c *Catalog) AddCourse(title string, catID, subID int, tutor string) (Course, error) {
	title, err := requireName("title", title)
	if err != nil {
		return Course{}, err
	}
	tutor, err = requireName("tutor", tutor)
	if err != nil {
		return Course{}, err
	}
	if _, err := c.Subcategory(catID, subID); err != nil {
		return Course{}, err
	}
	course := Course{ID: c.allocate(), Title: title, CategoryID: catID, SubcategoryID: subID, Tutor: tutor}
	c.Courses = append(c.Courses, course)
	return course, nil
}

// DeleteCategory removes a category with its subcategories and courses.
// It returns the number of courses removed with it.
func (c *Catalog) DeleteCategory(id int) (int, error) {
	if _, err := c.Category(id); err != nil {
		return 0, err
	}
	c.Categories = slices.DeleteFunc(c.Categories, func(cat Category) bool { return cat.ID == id })
	return c.dropCourses(func(course Course) bool { return course.CategoryID == id }), nil
}

// DeleteSubcategory removes a subcategory and the courses filed under it.
// It returns the number of courses removed with it.
func (c *Catalog) DeleteSubcategory(catID, subID int) (int, error) {
	if _, err := c.Subcategory(catID, subID); err != nil {
		return 0, err
	}
	cat, _ := c.Category(catID)
	cat.Subcategories = slices.DeleteFunc(cat.Subcategories, func(s Subcategory) bool { return s.ID == subID })
	return c.dropCourses(func(course Course) bool { return course.SubcategoryID == subID }), nil
}

// DeleteCourse removes one course.
func (c *Catalog) DeleteCourse(id int) error {
	if c.dropCourses(func(course Course) bool { return course.ID == id }) == 0 {
		return errors.NewNotFoundError("course", fmt.Sprint(id))
	}
	return nil
}

func (c *Catalog) dropCourses(match func(Course) bool) int {
	before := len(c.Courses)
	c.Courses = slices.DeleteFunc(c.Courses, match)
	return before - len(c.Courses)
}

// CourseRow is a course with its category names resolved for display.
type CourseRow struct {
	ID          int    `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Category    string `yaml:"category" json:"category"`
	Subcategory string `yaml:"subcategory" json:"subcategory"`
	Tutor       string `yaml:"tutor" json:"tutor"`
}

// CourseRows returns the courses with category and subcategory names.
func (c *Catalog) CourseRows() []CourseRow {
	rows := make([]CourseRow, 0, len(c.Courses))
	for _, course := range c.Courses {
		row := CourseRow{ID: course.ID, Title: course.Title, Tutor: course.Tutor}
		if cat, err := c.Category(course.CategoryID); err == nil {
			row.Category = cat.Name
		}
		if sub, err := c.Subcategory(course.CategoryID, course.SubcategoryID); err == nil {
			row.Subcategory = sub.Name
		}
		rows = append(rows, row)
	}
	return rows
}
