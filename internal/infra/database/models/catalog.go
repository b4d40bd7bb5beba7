package models

import (
	"time"

	"gorm.io/datatypes"
)

type Work struct {
	ID            int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	Domain        string         `json:"domain" gorm:"type:text;not null;index:idx_work_author,priority:1"`
	AuthorKey     string         `json:"authorKey" gorm:"type:text;not null;default:'';index:idx_work_author,priority:2"`
	Title         string         `json:"title" gorm:"type:text;not null"`
	OriginalTitle *string        `json:"originalTitle" gorm:"type:text"`
	ReleaseDate   *time.Time     `json:"releaseDate" gorm:"type:date"`
	PosterURL     *string        `json:"posterUrl" gorm:"type:text"`
	Synopsis      *string        `json:"synopsis" gorm:"type:text"`
	Rating        *float64       `json:"rating" gorm:"type:double precision"`
	ReviewCount   *int64         `json:"reviewCount" gorm:"type:bigint"`
	Attributes    datatypes.JSON `json:"attributes" gorm:"type:jsonb;not null;default:'{}'"`
	CDate         time.Time      `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate         time.Time      `json:"mdate" gorm:"autoUpdateTime"`
}

// MappingEntry is one populated slot of a work's platform mapping.
type MappingEntry struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	WorkID     int64     `json:"workId" gorm:"not null;uniqueIndex:idx_mapping_work_slot,priority:1"`
	Work       Work      `json:"-" gorm:"foreignKey:WorkID;references:ID;constraint:OnDelete:CASCADE;"`
	Domain     string    `json:"domain" gorm:"type:text;not null;uniqueIndex:idx_mapping_platform,priority:1"`
	Slot       string    `json:"slot" gorm:"type:text;not null;uniqueIndex:idx_mapping_work_slot,priority:2;uniqueIndex:idx_mapping_platform,priority:2"`
	PlatformID int64     `json:"platformId" gorm:"not null;uniqueIndex:idx_mapping_platform,priority:3"`
	CDate      time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

// SourceRecord is a staged crawler row awaiting integration.
type SourceRecord struct {
	ID        int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	Domain    string         `json:"domain" gorm:"type:text;not null;uniqueIndex:idx_source_platform,priority:1"`
	Platform  string         `json:"platform" gorm:"type:text;not null;uniqueIndex:idx_source_platform,priority:2"`
	SourceID  int64          `json:"sourceId" gorm:"not null;uniqueIndex:idx_source_platform,priority:3"`
	Payload   datatypes.JSON `json:"payload" gorm:"type:jsonb;not null"`
	FetchedAt time.Time      `json:"fetchedAt" gorm:"type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type IntegrationConfig struct {
	ID            int64              `json:"id" gorm:"primaryKey;autoIncrement"`
	Domain        string             `json:"domain" gorm:"type:text;not null;index"`
	Name          string             `json:"name" gorm:"type:text;not null"`
	Description   string             `json:"description" gorm:"type:text"`
	Active        bool               `json:"active" gorm:"type:boolean;not null;default:true;index"`
	FieldMappings []FieldMappingRule `json:"fieldMappings" gorm:"foreignKey:ConfigID;constraint:OnDelete:CASCADE;"`
	Calculations  []CalculationRule  `json:"calculations" gorm:"foreignKey:ConfigID;constraint:OnDelete:CASCADE;"`
	CDate         time.Time          `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate         time.Time          `json:"mdate" gorm:"autoUpdateTime"`
}

type FieldMappingRule struct {
	ID             int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	ConfigID       int64  `json:"configId" gorm:"not null;index"`
	Position       int    `json:"position" gorm:"not null"`
	TargetField    string `json:"targetField" gorm:"type:text;not null"`
	SourcePlatform string `json:"sourcePlatform" gorm:"type:text;not null"`
	SourceField    string `json:"sourceField" gorm:"type:text;not null"`
	Priority       int    `json:"priority" gorm:"not null"`
}

type CalculationRule struct {
	ID          int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	ConfigID    int64  `json:"configId" gorm:"not null;index"`
	Position    int    `json:"position" gorm:"not null"`
	TargetField string `json:"targetField" gorm:"type:text;not null"`
	Type        string `json:"type" gorm:"type:text;not null"`
	Expression  string `json:"expression" gorm:"type:text"`
	Required    bool   `json:"required" gorm:"type:boolean;not null;default:false"`
}
