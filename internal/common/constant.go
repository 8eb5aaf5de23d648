package common

// SettingsPrefix namespaces every flat settings key written by this client,
// so ClearUserData can remove them without touching unrelated keys.
const SettingsPrefix = "dipcp-"

// DeletionPrefix is the reserved key namespace for deletion tombstones inside
// the local workspace partition. Sync and enumeration code must treat keys
// under this prefix as records, never as files.
const DeletionPrefix = "__deletions__/"
