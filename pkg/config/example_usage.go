package config

// Example usage of the configuration system:
//
// 1. Load configuration with all sources:
//
//     config, err := config.Load("", nil)
//     if err != nil {
//         log.Fatal(err)
//     }
//
// 2. Load with custom config file:
//
//     config, err := config.Load("/path/to/config.yaml", nil)
//     if err != nil {
//         log.Fatal(err)
//     }
//
// 3. Load with command line flags:
//
//     flags := map[string]interface{}{
//         "keyword": "明日方舟",
//         "pages": 30,
//         "output": "./my-output",
//         "headless": false,
//         "log-level": "debug",
//     }
//     config, err := config.Load("", flags)
//     if err != nil {
//         log.Fatal(err)
//     }
//
// 4. Programmatic configuration:
//
//     config := config.DefaultConfig()
//     config.Target.Keyword = "your-keyword"
//     config.Target.Pages = 50
//     config.Media.BatchSize = 5
//
//     if err := config.Validate(); err != nil {
//         log.Fatal(err)
//     }
//
// 5. Save configuration to file:
//
//     if err := config.Save(".jdscraper.yaml"); err != nil {
//         log.Fatal(err)
//     }
//
// 6. Environment variables:
//
//     export JDSCRAPER_KEYWORD="明日方舟"
//     export JDSCRAPER_PAGES="150"
//     export JDSCRAPER_COOKIES_FILE="./cookies.json"
//     export JDSCRAPER_OUTPUT_DIR="./output"
//     export JDSCRAPER_MEDIA_BATCH_SIZE="5"
//     export JDSCRAPER_NOTIFICATIONS_ENABLED="true"
//     export JDSCRAPER_LOG_LEVEL="debug"
//
// 7. Using configuration in your application:
//
//     // Open a browser session factory with config
//     factory := browser.NewFactory(config.Browser, tokens, log)
//
//     // Set up the scroll pacer
//     pacer := ratelimit.NewRandomPacer(
//         config.Scroll.MinDelay.Duration,
//         config.Scroll.MaxDelay.Duration,
//     )
//
//     // Configure the media fetcher
//     fetcher := fetcher.New(config.Media, storage, log)
