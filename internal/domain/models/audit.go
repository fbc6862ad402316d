package models

import "time"

// Audit actions recorded by mutating operations.
const (
	AuditFolderCreate   = "folder.create"
	AuditFolderRename   = "folder.rename"
	AuditFolderMove     = "folder.move"
	AuditFolderDelete   = "folder.delete"
	AuditFolderLock     = "folder.lock"
	AuditFolderUnlock   = "folder.unlock"
	AuditFileMove       = "file.move"
	AuditFileCopy       = "file.copy"
	AuditGrantCreate    = "grant.create"
	AuditGrantRevoke    = "grant.revoke"
	AuditTeamCreate     = "team.create"
	AuditTeamMemberSet  = "team.member.set"
	AuditTeamMemberEdit = "team.member.update"
)

// Audit resource types.
const (
	AuditResourceFolder = "folder"
	AuditResourceFile   = "file"
	AuditResourceTeam   = "team"
)

type AuditEvent struct {
	ID           string         `json:"id"`
	Actor        string         `json:"actor"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	Timestamp    time.Time      `json:"timestamp"`
	Detail       map[string]any `json:"detail,omitempty"`
}
