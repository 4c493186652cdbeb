package model

// Backends groups all storage interfaces used by the application.
// It provides a single struct that can be passed around instead of
// multiple return values for each storage backend.
type Backends struct {
	Users         UsersStore
	KV            KeyValueStore
	Registrations RegistrationsStore

	Courses           ContentStore[Course]
	Workshops         ContentStore[Workshop]
	Webinars          ContentStore[Webinar]
	Magazines         ContentStore[Magazine]
	Articles          ContentStore[Article]
	Documents         ContentStore[Document]
	EducationalVideos ContentStore[EducationalVideo]
	Media             ContentStore[MediaItem]
	Slides            ContentStore[Slide]
	QuickAccess       ContentStore[QuickAccessItem]
}
