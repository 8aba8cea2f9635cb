package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"irrigation-status-backend/internal/controller"
	"irrigation-status-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	UpsertStations(ctx context.Context, batch []controller.StationStatus) error
	UpdateRuns(ctx context.Context, now time.Time, batch []controller.StationStatus) ([]int64, error)
	RecordStatus(ctx context.Context, now time.Time, batch []controller.StationStatus) ([]int64, error)
	Stations(ctx context.Context) ([]StationSummary, error)
	RunsBetween(ctx context.Context, stationID int64, from, to time.Time) ([]model.RunHistory, error)
	DB() *gorm.DB
}

// StationSummary is a station with the number of finished runs recorded for it.
type StationSummary struct {
	ID        int64     `json:"id"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason"`
	UpdatedAt time.Time `json:"updated_at"`
	Runs      int64     `json:"runs"`
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// RecordStatus stores the station metadata and run transitions of one status batch.
// It returns the stations whose program run finished.
func (s *gormStore) RecordStatus(ctx context.Context, now time.Time, batch []controller.StationStatus) ([]int64, error) {
	if err := s.UpsertStations(ctx, batch); err != nil {
		return nil, err
	}
	return s.UpdateRuns(ctx, now, batch)
}

// UpdateRuns processes on/off transitions and updates the database transactionally.
// It returns the stations whose program run ended in this batch.
func (s *gormStore) UpdateRuns(ctx context.Context, now time.Time, batch []controller.StationStatus) ([]int64, error) {
	var finished []int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Read the open runs inside the transaction so a run is archived once.
		currentOpenRecords, err := fetchAllOpenRuns(tx)
		if err != nil {
			return fmt.Errorf("failed to fetch open run records: %w", err)
		}

		for _, st := range batch {
			stationID := int64(st.Station)
			running := st.Status == controller.StatusOn
			oldRecord, exists := currentOpenRecords[stationID]

			if exists {
				if !running {
					if err := archiveRecord(tx, oldRecord, now); err != nil {
						return err
					}
					if err := tx.Delete(&model.RunOpen{}, oldRecord.StationID).Error; err != nil {
						return fmt.Errorf("failed to delete open run record for station %d: %w", oldRecord.StationID, err)
					}
					if oldRecord.Reason == controller.ReasonProgram {
						finished = append(finished, stationID)
					}
				} else if st.Reason != oldRecord.Reason {
					// Still on, but for another reason: close the old run and start a new one.
					if err := archiveRecord(tx, oldRecord, now); err != nil {
						return err
					}
					updatedRecord := prepareRun(st, now)
					if err := tx.Save(&updatedRecord).Error; err != nil {
						return fmt.Errorf("failed to update run record for station %d: %w", stationID, err)
					}
				}
				delete(currentOpenRecords, stationID)
			} else if running {
				newRecord := prepareRun(st, now)
				if err := tx.Create(&newRecord).Error; err != nil {
					return fmt.Errorf("failed to create run record for station %d: %w", stationID, err)
				}
			}
		}

		// Stations that vanished from the batch are closed without notification.
		for _, remainingRecord := range currentOpenRecords {
			if err := archiveRecord(tx, remainingRecord, now); err != nil {
				return err
			}
			if err := tx.Delete(&model.RunOpen{}, remainingRecord.StationID).Error; err != nil {
				return fmt.Errorf("failed to delete open run record for station %d: %w", remainingRecord.StationID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return finished, nil
}

// archiveRecord moves a finished run into the history table. The run ends at the
// predicted end when that lies before the observation, else at the observation.
func archiveRecord(tx *gorm.DB, recordToArchive model.RunOpen, observationTime time.Time) error {
	startTime := recordToArchive.ObservedAt
	periodEnd := observationTime
	if recordToArchive.Remaining > 0 {
		predicted := startTime.Add(time.Duration(recordToArchive.Remaining) * time.Second)
		if predicted.Before(observationTime) {
			periodEnd = predicted
		}
	}

	historyRecord := model.RunHistory{
		StationID:   recordToArchive.StationID,
		ObservedAt:  observationTime,
		Reason:      recordToArchive.Reason,
		PeriodStart: startTime,
		PeriodEnd:   periodEnd,
	}

	if err := tx.Create(&historyRecord).Error; err != nil {
		return fmt.Errorf("failed to archive run record for station %d: %w", recordToArchive.StationID, err)
	}
	return nil
}

func prepareRun(st controller.StationStatus, now time.Time) model.RunOpen {
	remaining := -1
	if st.Remaining >= 0 {
		remaining = int(st.Remaining)
	}
	return model.RunOpen{
		StationID:  int64(st.Station),
		ObservedAt: now,
		Reason:     st.Reason,
		Remaining:  remaining,
	}
}

// UpsertStations writes station metadata that changed since the last batch.
func (s *gormStore) UpsertStations(ctx context.Context, batch []controller.StationStatus) error {
	existingStations, err := s.fetchAllStations(ctx)
	if err != nil {
		log.Printf("Warning: could not pre-fetch stations: %v", err)
		existingStations = make(map[int64]model.Station)
	}

	var stationsToUpsert []model.Station
	for _, st := range batch {
		if st.Station <= 0 {
			log.Printf("Skipping status record with invalid station %d", st.Station)
			continue
		}
		station, needsUpsert := prepareStation(st, existingStations)
		if needsUpsert {
			stationsToUpsert = append(stationsToUpsert, station)
		}
	}

	if len(stationsToUpsert) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "reason", "updated_at"}),
	}).Create(&stationsToUpsert).Error
}

func prepareStation(st controller.StationStatus, existingStations map[int64]model.Station) (model.Station, bool) {
	newStation := model.Station{
		ID:     int64(st.Station),
		Status: st.Status,
		Reason: st.Reason,
	}
	if oldStation, exists := existingStations[newStation.ID]; exists {
		if oldStation.Status == newStation.Status && oldStation.Reason == newStation.Reason {
			return newStation, false
		}
	}
	return newStation, true
}

// Stations lists every known station with its finished run count.
func (s *gormStore) Stations(ctx context.Context) ([]StationSummary, error) {
	var summaries []StationSummary
	err := s.db.WithContext(ctx).
		Model(&model.Station{}).
		Select("stations.id, stations.status, stations.reason, stations.updated_at, COUNT(run_histories.id) AS runs").
		Joins("LEFT JOIN run_histories ON run_histories.station_id = stations.id").
		Group("stations.id, stations.status, stations.reason, stations.updated_at").
		Order("stations.id").
		Scan(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}
	return summaries, nil
}

// RunsBetween returns the finished runs of a station overlapping [from, to).
func (s *gormStore) RunsBetween(ctx context.Context, stationID int64, from, to time.Time) ([]model.RunHistory, error) {
	var runs []model.RunHistory
	err := s.db.WithContext(ctx).
		Where("station_id = ? AND period_end >= ? AND period_start < ?", stationID, from, to).
		Order("period_start").
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch runs for station %d: %w", stationID, err)
	}
	return runs, nil
}

func fetchAllOpenRuns(tx *gorm.DB) (map[int64]model.RunOpen, error) {
	var openRecords []model.RunOpen
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Find(&openRecords).Error; err != nil {
		return nil, err
	}
	recordMap := make(map[int64]model.RunOpen, len(openRecords))
	for _, r := range openRecords {
		recordMap[r.StationID] = r
	}
	return recordMap, nil
}

func (s *gormStore) fetchAllStations(ctx context.Context) (map[int64]model.Station, error) {
	var stations []model.Station
	if err := s.db.WithContext(ctx).Find(&stations).Error; err != nil {
		return nil, err
	}
	stationMap := make(map[int64]model.Station, len(stations))
	for _, st := range stations {
		stationMap[st.ID] = st
	}
	return stationMap, nil
}
