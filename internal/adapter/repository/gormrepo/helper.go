package gormrepo

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// errAbandon rolls a claim transaction back without surfacing an error.
var errAbandon = errors.New("claim abandoned")

func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func notFound(err, domainErr error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainErr
	}
	return err
}
