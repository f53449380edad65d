// Package models contains the GORM persistence models for counts, templates,
// stock levels, adjustments and decision audit entries. Domain types stay free
// of ORM tags; each model converts to and from its domain type.
package models
