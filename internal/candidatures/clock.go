package candidatures

import "time"

var timeNow = time.Now
