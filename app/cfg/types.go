package cfg

import "time"

type Command string

const (
	CommandImportPages       Command = "import-pages"
	CommandUpdateBlogs       Command = "update-blogs"
	CommandRepairStoryImages Command = "repair-story-images"
	CommandMigrateStories    Command = "migrate-stories"
	CommandServe             Command = "serve"
)

type Cfg struct {
	Command Command

	// Storage configuration
	DBPath    string
	MediaRoot string
	MediaURL  string

	// Source configuration
	FeedsDir     string
	LegacyRoot   string
	LegacyServer string
	ImageTimeout time.Duration

	// Server configuration
	Port              string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
