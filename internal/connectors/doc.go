// Package connectors holds the document sources. Each connector implements
// driven.Connector and yields RawDocuments for the extraction pipeline:
//
//   - filesystem: a local folder, optionally watched as a drop folder
//   - google/drive: a Google Drive account or shared folders
package connectors
