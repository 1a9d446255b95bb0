package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xavierca1/leadflow/internal/entity"
)

// leadRow is the column form of entity.Lead.
type leadRow struct {
	id             string
	clientName     string
	phone          string
	phoneKey       string
	address        string
	businessType   string
	hasWebsite     string
	websiteURL     string
	status         string
	addedByID      string
	addedByName    string
	assignedToID   sql.NullString
	assignedToName sql.NullString
	called         bool
	calledAt       sql.NullTime
	calledByID     sql.NullString
	calledByName   sql.NullString
	interestStatus sql.NullString
	notes          []byte
	activityLog    []byte
	deleted        bool
	deletedAt      sql.NullTime
	deletedBy      sql.NullString
	createdAt      time.Time
	updatedAt      time.Time
	revision       int64
}

func newLeadRow(l *entity.Lead) (*leadRow, error) {
	notes := l.Notes
	if notes == nil {
		notes = []entity.Note{}
	}
	notesJSON, err := json.Marshal(notes)
	if err != nil {
		return nil, fmt.Errorf("encode notes: %w", err)
	}

	log := l.ActivityLog
	if log == nil {
		log = []entity.ActivityLogEntry{}
	}
	logJSON, err := json.Marshal(log)
	if err != nil {
		return nil, fmt.Errorf("encode activity log: %w", err)
	}

	row := &leadRow{
		id:           l.ID,
		clientName:   l.ClientName,
		phone:        l.Phone,
		phoneKey:     l.PhoneKey,
		address:      l.Address,
		businessType: l.BusinessType,
		hasWebsite:   string(l.HasWebsite),
		websiteURL:   l.WebsiteURL,
		status:       string(l.Status),
		addedByID:    l.AddedBy.ID,
		addedByName:  l.AddedBy.Name,
		called:       l.CallStatus.Called,
		notes:        notesJSON,
		activityLog:  logJSON,
		deleted:      l.Deleted,
		createdAt:    l.CreatedAt,
		updatedAt:    l.UpdatedAt,
		revision:     l.Revision,
	}

	if l.AssignedTo != nil {
		row.assignedToID = sql.NullString{String: l.AssignedTo.ID, Valid: true}
		row.assignedToName = sql.NullString{String: l.AssignedTo.Name, Valid: true}
	}
	if l.CallStatus.CalledAt != nil {
		row.calledAt = sql.NullTime{Time: *l.CallStatus.CalledAt, Valid: true}
	}
	if l.CallStatus.CalledBy != nil {
		row.calledByID = sql.NullString{String: l.CallStatus.CalledBy.ID, Valid: true}
		row.calledByName = sql.NullString{String: l.CallStatus.CalledBy.Name, Valid: true}
	}
	if l.InterestStatus != nil {
		row.interestStatus = sql.NullString{String: string(*l.InterestStatus), Valid: true}
	}
	if l.DeletedAt != nil {
		row.deletedAt = sql.NullTime{Time: *l.DeletedAt, Valid: true}
	}
	if l.DeletedBy != nil {
		row.deletedBy = sql.NullString{String: *l.DeletedBy, Valid: true}
	}

	return row, nil
}

// args returns the insert arguments in leadColumns order. JSON columns are
// sent as text; lib/pq would encode []byte as bytea.
func (r *leadRow) args(revision int64) []interface{} {
	return []interface{}{
		r.id, r.clientName, r.phone, r.phoneKey, r.address, r.businessType, r.hasWebsite, r.websiteURL,
		r.status, r.addedByID, r.addedByName, r.assignedToID, r.assignedToName,
		r.called, r.calledAt, r.calledByID, r.calledByName, r.interestStatus,
		string(r.notes), string(r.activityLog), r.deleted, r.deletedAt, r.deletedBy, r.createdAt, r.updatedAt, revision,
	}
}

func (r *leadRow) dest() []interface{} {
	return []interface{}{
		&r.id, &r.clientName, &r.phone, &r.phoneKey, &r.address, &r.businessType, &r.hasWebsite, &r.websiteURL,
		&r.status, &r.addedByID, &r.addedByName, &r.assignedToID, &r.assignedToName,
		&r.called, &r.calledAt, &r.calledByID, &r.calledByName, &r.interestStatus,
		&r.notes, &r.activityLog, &r.deleted, &r.deletedAt, &r.deletedBy, &r.createdAt, &r.updatedAt, &r.revision,
	}
}

func (r *leadRow) toEntity() (*entity.Lead, error) {
	l := &entity.Lead{
		ID:           r.id,
		ClientName:   r.clientName,
		Phone:        r.phone,
		PhoneKey:     r.phoneKey,
		Address:      r.address,
		BusinessType: r.businessType,
		HasWebsite:   entity.WebsiteStatus(r.hasWebsite),
		WebsiteURL:   r.websiteURL,
		Status:       entity.LeadStatus(r.status),
		AddedBy:      entity.UserReference{ID: r.addedByID, Name: r.addedByName},
		CallStatus:   entity.CallStatus{Called: r.called},
		Deleted:      r.deleted,
		CreatedAt:    r.createdAt,
		UpdatedAt:    r.updatedAt,
		Revision:     r.revision,
	}

	if r.assignedToID.Valid {
		l.AssignedTo = &entity.UserReference{ID: r.assignedToID.String, Name: r.assignedToName.String}
	}
	if r.calledAt.Valid {
		t := r.calledAt.Time
		l.CallStatus.CalledAt = &t
	}
	if r.calledByID.Valid {
		l.CallStatus.CalledBy = &entity.UserReference{ID: r.calledByID.String, Name: r.calledByName.String}
	}
	if r.interestStatus.Valid {
		is := entity.InterestStatus(r.interestStatus.String)
		l.InterestStatus = &is
	}
	if r.deletedAt.Valid {
		t := r.deletedAt.Time
		l.DeletedAt = &t
	}
	if r.deletedBy.Valid {
		by := r.deletedBy.String
		l.DeletedBy = &by
	}

	if err := json.Unmarshal(r.notes, &l.Notes); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	if err := json.Unmarshal(r.activityLog, &l.ActivityLog); err != nil {
		return nil, fmt.Errorf("decode activity log: %w", err)
	}
	if l.Notes == nil {
		l.Notes = []entity.Note{}
	}

	return l, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanLead(s scanner) (*entity.Lead, error) {
	var row leadRow
	if err := s.Scan(row.dest()...); err != nil {
		return nil, err
	}
	return row.toEntity()
}
