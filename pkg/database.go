package evb

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
)

func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

type GainShiftEntry struct {
	Run        int     `db:"Run"`
	RangeIdx   int     `db:"RangeIdx"`
	T1         float64 `db:"T1"`
	T2         float64 `db:"T2"`
	Slope0     float64 `db:"Slope0"`
	Intercept0 float64 `db:"Intercept0"`
	Slope1     float64 `db:"Slope1"`
	Intercept1 float64 `db:"Intercept1"`
	Slope2     float64 `db:"Slope2"`
	Intercept2 float64 `db:"Intercept2"`
	Slope3     float64 `db:"Slope3"`
	Intercept3 float64 `db:"Intercept3"`
	Slope4     float64 `db:"Slope4"`
	Intercept4 float64 `db:"Intercept4"`
}

func (e GainShiftEntry) GainShift() GainShift {
	return GainShift{
		T1:        e.T1,
		T2:        e.T2,
		Slope:     [NumCebra]float64{e.Slope0, e.Slope1, e.Slope2, e.Slope3, e.Slope4},
		Intercept: [NumCebra]float64{e.Intercept0, e.Intercept1, e.Intercept2, e.Intercept3, e.Intercept4},
	}
}

const gainShiftsQuery = `SELECT Run, RangeIdx, T1, T2,
	Slope0, Intercept0, Slope1, Intercept1, Slope2, Intercept2,
	Slope3, Intercept3, Slope4, Intercept4
	FROM CebraGainShifts WHERE Run = ? ORDER BY RangeIdx`

// LoadGainMapFromDB builds the gain map of one run from the calibration
// database. On error the returned map is invalid.
func LoadGainMapFromDB(db *sqlx.DB, runNumber int) (*GainCalibrationMap, error) {
	gains := NewGainCalibrationMap()

	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Reading CeBrA gain shifts of run %d from database", runNumber)
		logger.Info(message, "database")
	}
	if configuration.Verbosity > 2 {
		message := fmt.Sprintf("Query: %s", gainShiftsQuery)
		logger.Info(message, "database")
	}

	rows, err := db.Queryx(gainShiftsQuery, runNumber)
	if err != nil {
		errMessage := fmt.Errorf("error querying database: %w", err)
		return gains, errMessage
	}
	defer rows.Close()

	for rows.Next() {
		result := GainShiftEntry{}
		err := rows.StructScan(&result)
		if err != nil {
			errMessage := fmt.Errorf("error scanning DB row: %w", err)
			return gains, errMessage
		}
		gains.set(result.Run, result.RangeIdx, result.GainShift())
	}
	if err := rows.Err(); err != nil {
		return gains, fmt.Errorf("error iterating DB rows: %w", err)
	}

	for run := range gains.shifts {
		gains.index(run)
	}
	gains.SetValid(true)
	return gains, nil
}
